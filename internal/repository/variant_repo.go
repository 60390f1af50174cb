package repository

import (
	"context"

	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariantRepository defines the data access contract for catalog variants.
// Services depend on this interface, not the concrete GORM implementation,
// enabling unit testing via in-memory fakes.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	// FindByIDTx re-reads the variant (with stock) inside a transaction —
	// used for authoritative decisions at completion time.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error)
	FindBySKU(ctx context.Context, sku string) (*model.ProductVariant, error)
	List(ctx context.Context, filter dto.VariantFilter) ([]model.ProductVariant, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type variantRepo struct{ db *gorm.DB }

func NewVariantRepository(db *gorm.DB) VariantRepository { return &variantRepo{db: db} }

func (r *variantRepo) DB() *gorm.DB { return r.db }

func (r *variantRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).Preload("Stock").Preload("Product").First(&v, id).Error
	return &v, err
}

func (r *variantRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := tx.Preload("Stock").First(&v, id).Error
	return &v, err
}

func (r *variantRepo) FindBySKU(ctx context.Context, sku string) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).Preload("Stock").Preload("Product").
		Where("sku = ? AND active = true", sku).First(&v).Error
	return &v, err
}

func (r *variantRepo) List(ctx context.Context, filter dto.VariantFilter) ([]model.ProductVariant, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Preload("Stock").Preload("Product")

	switch filter.Active {
	case "false":
		q = q.Where("product_variants.active = false")
	case "all":
		// no filter
	default:
		q = q.Where("product_variants.active = true")
	}
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("product_variants.name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.LowStock {
		q = q.Joins("JOIN stocks ON stocks.variant_id = product_variants.id").
			Where("stocks.quantity <= stocks.min_stock")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var variants []model.ProductVariant
	err := q.Order("product_variants.name ASC").Offset(offset).Limit(filter.Limit).Find(&variants).Error
	return variants, total, err
}
