package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus is the sale state machine:
// PENDING → COMPLETED → REFUNDED, PENDING → CANCELED.
// CANCELED and REFUNDED are terminal.
type SaleStatus string

const (
	SalePending   SaleStatus = "PENDING"
	SaleCompleted SaleStatus = "COMPLETED"
	SaleCanceled  SaleStatus = "CANCELED"
	SaleRefunded  SaleStatus = "REFUNDED"
)

// Sale is the aggregate root for a draft order and, once completed, a
// financial/inventory event. Totals stay zero while PENDING — money and
// stock are only touched inside the completion transaction.
type Sale struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Status   SaleStatus      `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// TotalCost is the frozen cost-of-goods snapshot set at completion.
	TotalCost     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"`
	CashSessionID *uuid.UUID      `gorm:"type:uuid;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	RefundReason  *string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	RefundedAt    *time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Payments []Payment  `gorm:"foreignKey:SaleID"`
	Customer *Customer  `gorm:"foreignKey:CustomerID"`
	User     *User      `gorm:"foreignKey:UserID"`
}

// SaleItem is one line of a sale. PriceAtSale and CostAtSale hold zero while
// the sale is PENDING and are written exactly once, inside the completion
// transaction, from the variant's live price/cost. They are never re-derived
// afterwards so historical reports survive catalog price changes.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CostAtSale  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt   time.Time

	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}

// Payment is one tender line of a completed sale. Created only inside the
// completion transaction; a sale may carry several (split tender).
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    PaymentMethod   `gorm:"type:varchar(20);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time
}
