package repository

import (
	"context"

	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, s *model.Sale) error
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindByIDTx re-fetches the sale with items, variants and stock inside a
	// transaction. Authoritative decisions must read this, never a
	// pre-transaction snapshot.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	// DeleteTx removes the sale and its items (cancel of a PENDING draft).
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	// Draft item mutations — valid only while the sale is PENDING.
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.SaleItem, error)
	FindItemBySaleAndVariant(ctx context.Context, saleID, variantID uuid.UUID) (*model.SaleItem, error)
	CreateItem(ctx context.Context, it *model.SaleItem) error
	UpdateItem(ctx context.Context, it *model.SaleItem) error
	UpdateItemTx(tx *gorm.DB, it *model.SaleItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	CreatePaymentTx(tx *gorm.DB, p *model.Payment) error

	// DB exposes the underlying *gorm.DB for transaction creation in services.
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, s *model.Sale) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items.Variant.Stock").
		Preload("Payments").
		Preload("Customer").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.
		Preload("Items.Variant.Stock").
		Preload("Payments").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Save(s).Error
}

func (r *saleRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("sale_id = ?", id).Delete(&model.SaleItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Sale{}, id).Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else {
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var sales []model.Sale
	err := q.Preload("Items.Variant").Preload("Payments").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.SaleItem, error) {
	var it model.SaleItem
	err := r.db.WithContext(ctx).First(&it, id).Error
	return &it, err
}

func (r *saleRepo) FindItemBySaleAndVariant(ctx context.Context, saleID, variantID uuid.UUID) (*model.SaleItem, error) {
	var it model.SaleItem
	err := r.db.WithContext(ctx).
		Where("sale_id = ? AND variant_id = ?", saleID, variantID).First(&it).Error
	return &it, err
}

func (r *saleRepo) CreateItem(ctx context.Context, it *model.SaleItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *saleRepo) UpdateItem(ctx context.Context, it *model.SaleItem) error {
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *saleRepo) UpdateItemTx(tx *gorm.DB, it *model.SaleItem) error {
	return tx.Save(it).Error
}

func (r *saleRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SaleItem{}, id).Error
}

func (r *saleRepo) CreatePaymentTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}
