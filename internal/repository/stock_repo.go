package repository

import (
	"context"

	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRepository owns the live on-hand counters. The quantity column is only
// ever touched through AdjustQuantityTx so every change stays paired with a
// ledger row written in the same transaction.
type StockRepository interface {
	FindByVariant(ctx context.Context, variantID uuid.UUID) (*model.Stock, error)
	FindByVariantTx(tx *gorm.DB, variantID uuid.UUID) (*model.Stock, error)
	// AdjustQuantityTx applies a relative delta with a SQL expression, so two
	// concurrent transactions cannot overwrite each other's decrement.
	AdjustQuantityTx(tx *gorm.DB, variantID uuid.UUID, delta int) error
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) FindByVariant(ctx context.Context, variantID uuid.UUID) (*model.Stock, error) {
	var s model.Stock
	err := r.db.WithContext(ctx).Where("variant_id = ?", variantID).First(&s).Error
	return &s, err
}

func (r *stockRepo) FindByVariantTx(tx *gorm.DB, variantID uuid.UUID) (*model.Stock, error) {
	var s model.Stock
	err := tx.Where("variant_id = ?", variantID).First(&s).Error
	return &s, err
}

func (r *stockRepo) AdjustQuantityTx(tx *gorm.DB, variantID uuid.UUID, delta int) error {
	return tx.Model(&model.Stock{}).Where("variant_id = ?", variantID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}
