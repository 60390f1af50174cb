package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is a physical or logical till. The "at most one non-closed
// session per register" invariant is enforced at open time, inside the same
// transaction as the insert.
type CashRegister struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

// SessionStatus: OPEN → CLOSED, no reopen.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// CashMovementType classifies drawer activity. Only the active set is ever
// written by new code; the legacy set exists solely to read archived sessions.
type CashMovementType string

const (
	MovementOpening CashMovementType = "OPENING"
	MovementIncome  CashMovementType = "INCOME"
	MovementExpense CashMovementType = "EXPENSE"
	MovementSale    CashMovementType = "SALE"
	MovementRefund  CashMovementType = "REFUND"
	// MovementClose is the close record appended when a session is closed,
	// carrying the total counted amount. Successor of the legacy CLOSING type.
	MovementClose CashMovementType = "CLOSE"
)

// Legacy movement types from the pre-migration schema. Readable, never emitted.
const (
	LegacyDeposit    CashMovementType = "DEPOSIT"
	LegacyWithdrawal CashMovementType = "WITHDRAWAL"
	LegacyClosing    CashMovementType = "CLOSING"
)

// IsLegacy reports whether t belongs to the deprecated set.
func (t CashMovementType) IsLegacy() bool {
	return t == LegacyDeposit || t == LegacyWithdrawal || t == LegacyClosing
}

// MethodAmounts holds one decimal slot per payment method. Stored as a single
// jsonb column — the three per-method vectors a closed session carries would
// otherwise need eighteen scalar columns.
type MethodAmounts struct {
	Cash       decimal.Decimal `json:"cash"`
	CreditCard decimal.Decimal `json:"credit_card"`
	DebitCard  decimal.Decimal `json:"debit_card"`
	Transfer   decimal.Decimal `json:"transfer"`
	Check      decimal.Decimal `json:"check"`
	Other      decimal.Decimal `json:"other"`
}

// Get returns the slot for m.
func (a MethodAmounts) Get(m PaymentMethod) decimal.Decimal {
	switch m {
	case MethodCash:
		return a.Cash
	case MethodCreditCard:
		return a.CreditCard
	case MethodDebitCard:
		return a.DebitCard
	case MethodTransfer:
		return a.Transfer
	case MethodCheck:
		return a.Check
	default:
		return a.Other
	}
}

// Set writes the slot for m.
func (a *MethodAmounts) Set(m PaymentMethod, v decimal.Decimal) {
	switch m {
	case MethodCash:
		a.Cash = v
	case MethodCreditCard:
		a.CreditCard = v
	case MethodDebitCard:
		a.DebitCard = v
	case MethodTransfer:
		a.Transfer = v
	case MethodCheck:
		a.Check = v
	default:
		a.Other = v
	}
}

// Add accumulates v into the slot for m.
func (a *MethodAmounts) Add(m PaymentMethod, v decimal.Decimal) {
	a.Set(m, a.Get(m).Add(v))
}

// Total sums all six slots.
func (a MethodAmounts) Total() decimal.Decimal {
	return a.Cash.Add(a.CreditCard).Add(a.DebitCard).
		Add(a.Transfer).Add(a.Check).Add(a.Other)
}

// Value implements driver.Valuer for the jsonb column.
func (a MethodAmounts) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for the jsonb column.
func (a *MethodAmounts) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = MethodAmounts{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("method amounts: unsupported scan type %T", src)
	}
}

// CashSession is the open/closed lifecycle of a till drawer for one user on
// one register. Expected amounts are re-derived from the movement/payment log
// on every request and only persisted here at close time.
type CashSession struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status        SessionStatus   `gorm:"type:varchar(10);not null;default:'OPEN';index"`

	// Closing vectors, written exactly once on close.
	ClosingAmounts  *MethodAmounts   `gorm:"type:jsonb"`
	ExpectedAmounts *MethodAmounts   `gorm:"type:jsonb"`
	Differences     *MethodAmounts   `gorm:"type:jsonb"`
	ClosingTotal    *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedTotal   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DifferenceTotal *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes           *string

	OpenedAt time.Time
	ClosedAt *time.Time

	Register  *CashRegister  `gorm:"foreignKey:RegisterID"`
	User      *User          `gorm:"foreignKey:UserID"`
	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

// CashMovement is an immutable event in a session's drawer ledger.
// One OPENING row is created with the session; SALE/REFUND rows are created
// inside sale completion/refund transactions; INCOME/EXPENSE rows are manual.
type CashMovement struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type      CashMovementType `gorm:"type:varchar(20);not null"`
	Method    PaymentMethod    `gorm:"type:varchar(20);not null"`
	// Amount is signed: EXPENSE and REFUND rows are stored negative.
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string
	SaleID      *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
}
