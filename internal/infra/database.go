package infra

import (
	"fmt"

	"github.com/napestudio/stock-control-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the full schema, then applies the idempotent SQL patches GORM cannot
// express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.ProductVariant{},
		&model.Stock{},
		&model.StockMovement{},
		&model.User{},
		&model.Customer{},
		&model.CashRegister{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Payment{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	return db, nil
}

// applySchemaPatches adds the partial unique indexes backing the "one open
// session per register / per user" invariant. The open-time transaction is
// the primary enforcement; these indexes are the database-level backstop.
// Each statement is idempotent, so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_open_session_per_register
		 ON cash_sessions (register_id) WHERE status = 'OPEN'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uni_open_session_per_user
		 ON cash_sessions (user_id) WHERE status = 'OPEN'`,
	}
	for _, p := range patches {
		if err := db.Exec(p).Error; err != nil {
			return err
		}
	}
	return nil
}
