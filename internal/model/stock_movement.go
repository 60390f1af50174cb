package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovementType classifies ledger entries.
type StockMovementType string

const (
	StockIn         StockMovementType = "IN"
	StockOut        StockMovementType = "OUT"
	StockAdjustment StockMovementType = "ADJUSTMENT"
	StockReturn     StockMovementType = "RETURN"
)

// StockMovement records every quantity change on a variant, paired with the
// mutation of the live counter. Rows are created inside the same transaction
// as the counter update and are never modified or deleted.
type StockMovement struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VariantID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Type      StockMovementType `gorm:"type:varchar(20);not null"`
	// Quantity is signed: positive = into stock, negative = out of stock.
	Quantity       int `gorm:"not null"`
	QuantityBefore int `gorm:"not null"`
	QuantityAfter  int `gorm:"not null"`
	Reason         string
	// SaleID links the movement to the sale that produced it, when any.
	SaleID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time

	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
