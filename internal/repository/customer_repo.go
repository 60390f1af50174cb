package repository

import (
	"context"

	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	FindByEmailTx(tx *gorm.DB, email string) (*model.Customer, error)
	CreateTx(tx *gorm.DB, c *model.Customer) error
	UpdateTx(tx *gorm.DB, c *model.Customer) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *customerRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := tx.First(&c, id).Error
	return &c, err
}

func (r *customerRepo) FindByEmailTx(tx *gorm.DB, email string) (*model.Customer, error) {
	var c model.Customer
	err := tx.Where("email = ?", email).First(&c).Error
	return &c, err
}

func (r *customerRepo) CreateTx(tx *gorm.DB, c *model.Customer) error {
	return tx.Create(c).Error
}

func (r *customerRepo) UpdateTx(tx *gorm.DB, c *model.Customer) error {
	return tx.Save(c).Error
}
