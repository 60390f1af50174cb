package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterID    string          `json:"register_id"    validate:"required,uuid"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

// CountedAmounts carries the human-counted closing amount per method. Cash is
// always required; the rest are required only when the method saw activity —
// absence with zero expected activity is treated as zero.
type CountedAmounts struct {
	Cash       decimal.Decimal  `json:"cash"        validate:"min=0"`
	CreditCard *decimal.Decimal `json:"credit_card" validate:"omitempty,min=0"`
	DebitCard  *decimal.Decimal `json:"debit_card"  validate:"omitempty,min=0"`
	Transfer   *decimal.Decimal `json:"transfer"    validate:"omitempty,min=0"`
	Check      *decimal.Decimal `json:"check"       validate:"omitempty,min=0"`
	Other      *decimal.Decimal `json:"other"       validate:"omitempty,min=0"`
}

type CloseSessionRequest struct {
	Counted CountedAmounts `json:"counted" validate:"required"`
	Notes   *string        `json:"notes"`
}

type ManualMovementRequest struct {
	Type        string          `json:"type"        validate:"required,oneof=INCOME EXPENSE"`
	Method      string          `json:"method"      validate:"required,oneof=cash credit_card debit_card transfer check other"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description *string         `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MethodBreakdown is the reconciliation detail for one payment method.
type MethodBreakdown struct {
	Method   string          `json:"method"`
	Sales    decimal.Decimal `json:"sales"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Opening  decimal.Decimal `json:"opening"`
	Expected decimal.Decimal `json:"expected"`
}

// ClosingSummaryResponse is the reconciliation summary, re-derived from the
// movement/payment log on every call.
type ClosingSummaryResponse struct {
	SessionID     string            `json:"session_id"`
	Status        string            `json:"status"`
	OpeningAmount decimal.Decimal   `json:"opening_amount"`
	Breakdown     []MethodBreakdown `json:"breakdown"`
	ExpectedTotal decimal.Decimal   `json:"expected_total"`
}

// MethodDifference reports counted vs expected for one method at close time.
type MethodDifference struct {
	Method     string          `json:"method"`
	Expected   decimal.Decimal `json:"expected"`
	Counted    decimal.Decimal `json:"counted"`
	Difference decimal.Decimal `json:"difference"`
}

type SessionResponse struct {
	ID              string             `json:"id"`
	RegisterID      string             `json:"register_id"`
	UserID          string             `json:"user_id"`
	Status          string             `json:"status"`
	OpeningAmount   decimal.Decimal    `json:"opening_amount"`
	Differences     []MethodDifference `json:"differences,omitempty"`
	ExpectedTotal   *decimal.Decimal   `json:"expected_total,omitempty"`
	ClosingTotal    *decimal.Decimal   `json:"closing_total,omitempty"`
	DifferenceTotal *decimal.Decimal   `json:"difference_total,omitempty"`
	// Discrepancy classification is guidance only: none | minor | major.
	Discrepancy *string `json:"discrepancy,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	OpenedAt    string  `json:"opened_at"`
	ClosedAt    *string `json:"closed_at,omitempty"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SaleID      *string         `json:"sale_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
