package repository

import (
	"context"

	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementSum is one row of the per-type, per-method aggregation used by the
// reconciliation summary.
type MovementSum struct {
	Type   model.CashMovementType
	Method model.PaymentMethod
	Total  decimal.Decimal
}

type SessionRepository interface {
	CreateSessionTx(tx *gorm.DB, s *model.CashSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	// FindOpenByRegisterTx and FindOpenByUserTx back the check-then-insert
	// pattern at open time. gorm.ErrRecordNotFound means no open session.
	FindOpenByRegisterTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error)
	FindOpenByUserTx(tx *gorm.DB, userID uuid.UUID) (*model.CashSession, error)
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error)
	UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)

	FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)

	CreateMovement(ctx context.Context, m *model.CashMovement) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)

	// SumPaymentsByMethod aggregates Payment rows of COMPLETED sales routed
	// through the session, grouped by method. Pass a live tx when the result
	// feeds an authoritative decision (close time); nil uses the base handle.
	SumPaymentsByMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error)
	// SumMovementsByTypeAndMethod aggregates signed movement amounts,
	// grouped by (type, method). Includes legacy types for archived reads.
	SumMovementsByTypeAndMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]MovementSum, error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) CreateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("Register").First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByRegisterTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Where("register_id = ? AND status = ?", registerID, model.SessionOpen).First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByUserTx(tx *gorm.DB, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Where("user_id = ? AND status = ?", userID, model.SessionOpen).First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.SessionOpen).First(&s).Error
	return &s, err
}

func (r *sessionRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Save(s).Error
}

func (r *sessionRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sessions []model.CashSession
	err := q.Preload("Register").Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, id).Error
	return &reg, err
}

func (r *sessionRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *sessionRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *sessionRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *sessionRepo) SumPaymentsByMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	type row struct {
		Method model.PaymentMethod
		Total  decimal.Decimal
	}
	var rows []row
	err := db.Raw(`
		SELECT p.method AS method, COALESCE(SUM(p.amount), 0) AS total
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
		WHERE s.cash_session_id = ? AND s.status = ?
		GROUP BY p.method`, sessionID, model.SaleCompleted).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[model.PaymentMethod]decimal.Decimal, len(rows))
	for _, rw := range rows {
		sums[rw.Method] = rw.Total
	}
	return sums, nil
}

func (r *sessionRepo) SumMovementsByTypeAndMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]MovementSum, error) {
	db := tx
	if db == nil {
		db = r.db.WithContext(ctx)
	}
	var rows []MovementSum
	err := db.Raw(`
		SELECT type, method, COALESCE(SUM(amount), 0) AS total
		FROM cash_movements
		WHERE session_id = ?
		GROUP BY type, method`, sessionID).Scan(&rows).Error
	return rows, err
}
