package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// minorDiscrepancyLimit separates a "minor" counting difference from a
// "major" one. Guidance only — a major discrepancy never blocks the close.
var minorDiscrepancyLimit = decimal.NewFromInt(10)

type SessionService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, userID, sessionID uuid.UUID, mayCloseOthers bool, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Summary(ctx context.Context, sessionID uuid.UUID) (*dto.ClosingSummaryResponse, error)
	AddManualMovement(ctx context.Context, userID, sessionID uuid.UUID, req dto.ManualMovementRequest) (*dto.MovementResponse, error)
	Active(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	History(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error)
	Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)
}

type sessionService struct {
	sessions repository.SessionRepository
}

func NewSessionService(sessions repository.SessionRepository) SessionService {
	return &sessionService{sessions: sessions}
}

// ── Open ─────────────────────────────────────────────────────────────────────
// Check-then-insert inside one transaction: the register must have no open
// session, and neither must the opening user.

func (s *sessionService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apierror.Validation("invalid register_id")
	}
	if req.OpeningAmount.IsNegative() {
		return nil, apierror.Validation("opening amount must not be negative")
	}

	register, err := s.sessions.FindRegisterByID(ctx, registerID)
	if err != nil {
		return nil, apierror.NotFound("cash register not found")
	}
	if !register.Active {
		return nil, apierror.Validation(fmt.Sprintf("register %s is inactive", register.Name))
	}

	var session *model.CashSession
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if existing, ferr := s.sessions.FindOpenByRegisterTx(tx, registerID); ferr == nil && existing != nil {
			return apierror.ResourceConflict(fmt.Sprintf("register %s already has an open session", register.Name))
		} else if ferr != nil && !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return ferr
		}
		if existing, ferr := s.sessions.FindOpenByUserTx(tx, userID); ferr == nil && existing != nil {
			return apierror.ResourceConflict("user already has an open session")
		} else if ferr != nil && !errors.Is(ferr, gorm.ErrRecordNotFound) {
			return ferr
		}

		session = &model.CashSession{
			RegisterID:    registerID,
			UserID:        userID,
			OpeningAmount: req.OpeningAmount,
			Status:        model.SessionOpen,
			OpenedAt:      time.Now(),
		}
		if err := s.sessions.CreateSessionTx(tx, session); err != nil {
			return err
		}
		return s.sessions.CreateMovementTx(tx, &model.CashMovement{
			SessionID:   session.ID,
			Type:        model.MovementOpening,
			Method:      model.MethodCash,
			Amount:      req.OpeningAmount,
			Description: "session opened",
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(session), nil
}

// ── Reconciliation summary ───────────────────────────────────────────────────

// methodTotals is the per-method reconciliation state assembled from the
// payment and movement logs.
type methodTotals struct {
	sales   model.MethodAmounts
	income  model.MethodAmounts
	expense model.MethodAmounts
}

// expected returns the expected drawer amount for m: opening float (cash
// only) plus completed-sale payments plus signed manual movements.
func (t *methodTotals) expected(session *model.CashSession, m model.PaymentMethod) decimal.Decimal {
	exp := t.sales.Get(m).Add(t.income.Get(m)).Add(t.expense.Get(m))
	if m == model.MethodCash {
		exp = exp.Add(session.OpeningAmount)
	}
	return exp
}

// computeTotalsTx re-derives the summary from the logs. SALE, REFUND, OPENING
// and CLOSE movement rows are excluded from the movement aggregation: sales
// come from Payment rows of COMPLETED sales (a refunded sale drops out when
// its status flips), the opening float comes from the session record, and the
// close record is a marker, not drawer activity. Legacy DEPOSIT/WITHDRAWAL
// rows from archived sessions count as manual income/expense.
func (s *sessionService) computeTotalsTx(ctx context.Context, tx *gorm.DB, session *model.CashSession) (*methodTotals, error) {
	payments, err := s.sessions.SumPaymentsByMethod(ctx, tx, session.ID)
	if err != nil {
		return nil, err
	}
	movements, err := s.sessions.SumMovementsByTypeAndMethod(ctx, tx, session.ID)
	if err != nil {
		return nil, err
	}

	totals := &methodTotals{}
	for method, amount := range payments {
		totals.sales.Add(method, amount)
	}
	for _, sum := range movements {
		switch sum.Type {
		case model.MovementIncome, model.LegacyDeposit:
			totals.income.Add(sum.Method, sum.Total)
		case model.MovementExpense, model.LegacyWithdrawal:
			totals.expense.Add(sum.Method, sum.Total)
		}
	}
	return totals, nil
}

func (s *sessionService) Summary(ctx context.Context, sessionID uuid.UUID) (*dto.ClosingSummaryResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("cash session not found")
	}
	totals, err := s.computeTotalsTx(ctx, nil, session)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClosingSummaryResponse{
		SessionID:     session.ID.String(),
		Status:        string(session.Status),
		OpeningAmount: session.OpeningAmount,
	}
	expectedTotal := decimal.Zero
	for _, method := range model.PaymentMethods {
		exp := totals.expected(session, method)
		expectedTotal = expectedTotal.Add(exp)
		resp.Breakdown = append(resp.Breakdown, dto.MethodBreakdown{
			Method:   string(method),
			Sales:    totals.sales.Get(method),
			Income:   totals.income.Get(method),
			Expense:  totals.expense.Get(method),
			Opening:  openingFor(session, method),
			Expected: exp,
		})
	}
	resp.ExpectedTotal = expectedTotal
	return resp, nil
}

func openingFor(session *model.CashSession, m model.PaymentMethod) decimal.Decimal {
	if m == model.MethodCash {
		return session.OpeningAmount
	}
	return decimal.Zero
}

// ── Close ────────────────────────────────────────────────────────────────────
// Expected amounts are re-derived inside the closing transaction, compared
// against the human count, and the whole result is frozen onto the session.
// Differences are recorded, never enforced.

func (s *sessionService) Close(ctx context.Context, userID, sessionID uuid.UUID, mayCloseOthers bool, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	var closed *model.CashSession
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		session, err := s.sessions.FindByIDTx(tx, sessionID)
		if err != nil {
			return apierror.NotFound("cash session not found")
		}
		if session.Status != model.SessionOpen {
			return apierror.StateConflict("cash session is already closed")
		}
		if session.UserID != userID && !mayCloseOthers {
			return apierror.StateConflict("only the session owner can close it")
		}

		totals, err := s.computeTotalsTx(ctx, tx, session)
		if err != nil {
			return err
		}

		expected := model.MethodAmounts{}
		for _, method := range model.PaymentMethods {
			expected.Set(method, totals.expected(session, method))
		}
		counted, err := countedAmounts(req.Counted, expected)
		if err != nil {
			return err
		}

		differences := model.MethodAmounts{}
		for _, method := range model.PaymentMethods {
			differences.Set(method, counted.Get(method).Sub(expected.Get(method)))
		}

		now := time.Now()
		closingTotal := counted.Total()
		expectedTotal := expected.Total()
		differenceTotal := differences.Total()

		session.Status = model.SessionClosed
		session.ClosingAmounts = &counted
		session.ExpectedAmounts = &expected
		session.Differences = &differences
		session.ClosingTotal = &closingTotal
		session.ExpectedTotal = &expectedTotal
		session.DifferenceTotal = &differenceTotal
		session.Notes = req.Notes
		session.ClosedAt = &now
		if err := s.sessions.UpdateSessionTx(tx, session); err != nil {
			return err
		}

		if err := s.sessions.CreateMovementTx(tx, &model.CashMovement{
			SessionID:   session.ID,
			Type:        model.MovementClose,
			Method:      model.MethodCash,
			Amount:      closingTotal,
			Description: fmt.Sprintf("session closed: counted %s, difference %s",
				closingTotal.StringFixed(2), differenceTotal.StringFixed(2)),
		}); err != nil {
			return err
		}

		closed = session
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return sessionToResponse(closed), nil
}

// countedAmounts maps the request count onto the six-slot vector. Cash is
// always taken as counted; any other method with nonzero expected activity
// must be counted explicitly, and an omitted inactive method counts as zero.
func countedAmounts(c dto.CountedAmounts, expected model.MethodAmounts) (model.MethodAmounts, error) {
	counted := model.MethodAmounts{Cash: c.Cash}
	optional := map[model.PaymentMethod]*decimal.Decimal{
		model.MethodCreditCard: c.CreditCard,
		model.MethodDebitCard:  c.DebitCard,
		model.MethodTransfer:   c.Transfer,
		model.MethodCheck:      c.Check,
		model.MethodOther:      c.Other,
	}
	for method, value := range optional {
		if value == nil {
			if !expected.Get(method).IsZero() {
				return counted, apierror.Validation(fmt.Sprintf("counted amount for %s is required", method))
			}
			continue
		}
		if value.IsNegative() {
			return counted, apierror.Validation(fmt.Sprintf("counted amount for %s must not be negative", method))
		}
		counted.Set(method, *value)
	}
	if c.Cash.IsNegative() {
		return counted, apierror.Validation("counted amount for cash must not be negative")
	}
	return counted, nil
}

// classifyDiscrepancy buckets the total counting difference.
func classifyDiscrepancy(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.LessThan(paymentTolerance):
		return "none"
	case abs.LessThan(minorDiscrepancyLimit):
		return "minor"
	default:
		return "major"
	}
}

// ── Manual movements ─────────────────────────────────────────────────────────

func (s *sessionService) AddManualMovement(ctx context.Context, userID, sessionID uuid.UUID, req dto.ManualMovementRequest) (*dto.MovementResponse, error) {
	method := model.PaymentMethod(req.Method)
	if !model.ValidPaymentMethod(method) {
		return nil, apierror.Validation(fmt.Sprintf("unknown payment method %q", req.Method))
	}
	movType := model.CashMovementType(req.Type)
	if movType != model.MovementIncome && movType != model.MovementExpense {
		return nil, apierror.Validation("movement type must be INCOME or EXPENSE")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("amount must be greater than zero")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("cash session not found")
	}
	if session.Status != model.SessionOpen {
		return nil, apierror.StateConflict("movements can only be added to an open session")
	}
	if session.UserID != userID {
		return nil, apierror.StateConflict("only the session owner can add movements")
	}

	amount := req.Amount
	if movType == model.MovementExpense {
		amount = amount.Neg()
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	movement := &model.CashMovement{
		SessionID:   sessionID,
		Type:        movType,
		Method:      method,
		Amount:      amount,
		Description: description,
	}
	if err := s.sessions.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}
	return movementToResponse(movement), nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *sessionService) Active(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, apierror.NotFound("no open session for user")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apierror.NotFound("cash session not found")
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) ([]dto.SessionResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	sessions, total, err := s.sessions.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *sessionToResponse(&sessions[i]))
	}
	return out, total, nil
}

func (s *sessionService) Movements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		return nil, apierror.NotFound("cash session not found")
	}
	movements, err := s.sessions.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, *movementToResponse(&movements[i]))
	}
	return out, nil
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

func sessionToResponse(session *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:            session.ID.String(),
		RegisterID:    session.RegisterID.String(),
		UserID:        session.UserID.String(),
		Status:        string(session.Status),
		OpeningAmount: session.OpeningAmount,
		Notes:         session.Notes,
		OpenedAt:      session.OpenedAt.Format(time.RFC3339),
	}
	if session.ClosedAt != nil {
		t := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	if session.Status == model.SessionClosed && session.Differences != nil {
		for _, method := range model.PaymentMethods {
			resp.Differences = append(resp.Differences, dto.MethodDifference{
				Method:     string(method),
				Expected:   session.ExpectedAmounts.Get(method),
				Counted:    session.ClosingAmounts.Get(method),
				Difference: session.Differences.Get(method),
			})
		}
		resp.ExpectedTotal = session.ExpectedTotal
		resp.ClosingTotal = session.ClosingTotal
		resp.DifferenceTotal = session.DifferenceTotal
		if session.DifferenceTotal != nil {
			d := classifyDiscrepancy(*session.DifferenceTotal)
			resp.Discrepancy = &d
		}
	}
	return resp
}

func movementToResponse(m *model.CashMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:          m.ID.String(),
		Type:        string(m.Type),
		Method:      string(m.Method),
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
	if m.SaleID != nil {
		id := m.SaleID.String()
		resp.SaleID = &id
	}
	return resp
}
