package service

import (
	"fmt"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockLedger is the only writer of on-hand quantities. Every operation
// appends an immutable StockMovement and adjusts the live counter in the same
// enclosing transaction, then re-reads the counter: a negative result means
// the isolation level let a race through and the whole transaction must fail.
type StockLedger interface {
	// DebitTx removes qty units (sale completion). Fails with a resource
	// conflict when on-hand is insufficient at decision time.
	DebitTx(tx *gorm.DB, variantID uuid.UUID, qty int, reason string, saleID *uuid.UUID) error
	// CreditTx adds qty units; typ must be IN (goods received) or RETURN
	// (refund reversal).
	CreditTx(tx *gorm.DB, variantID uuid.UUID, qty int, typ model.StockMovementType, reason string, saleID *uuid.UUID) error
	// AdjustTx applies a signed manual correction, recorded as ADJUSTMENT.
	AdjustTx(tx *gorm.DB, variantID uuid.UUID, delta int, reason string) error
}

type stockLedger struct {
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
}

func NewStockLedger(stocks repository.StockRepository, movements repository.StockMovementRepository) StockLedger {
	return &stockLedger{stocks: stocks, movements: movements}
}

func (l *stockLedger) DebitTx(tx *gorm.DB, variantID uuid.UUID, qty int, reason string, saleID *uuid.UUID) error {
	if qty <= 0 {
		return apierror.Validation("debit quantity must be positive")
	}

	before, err := l.stocks.FindByVariantTx(tx, variantID)
	if err != nil {
		return apierror.NotFound(fmt.Sprintf("no stock record for variant %s", variantID))
	}
	// Authoritative sufficiency check — re-read inside the transaction, never
	// trusted from an earlier advisory check.
	if before.Quantity < qty {
		return apierror.ResourceConflict(fmt.Sprintf(
			"insufficient stock for variant %s: have %d, need %d", variantID, before.Quantity, qty))
	}

	return l.apply(tx, variantID, -qty, model.StockOut, reason, saleID, before.Quantity)
}

func (l *stockLedger) CreditTx(tx *gorm.DB, variantID uuid.UUID, qty int, typ model.StockMovementType, reason string, saleID *uuid.UUID) error {
	if qty <= 0 {
		return apierror.Validation("credit quantity must be positive")
	}
	if typ != model.StockIn && typ != model.StockReturn {
		return apierror.Validation(fmt.Sprintf("invalid credit movement type %q", typ))
	}

	before, err := l.stocks.FindByVariantTx(tx, variantID)
	if err != nil {
		return apierror.NotFound(fmt.Sprintf("no stock record for variant %s", variantID))
	}
	return l.apply(tx, variantID, qty, typ, reason, saleID, before.Quantity)
}

func (l *stockLedger) AdjustTx(tx *gorm.DB, variantID uuid.UUID, delta int, reason string) error {
	if delta == 0 {
		return apierror.Validation("adjustment delta must be nonzero")
	}

	before, err := l.stocks.FindByVariantTx(tx, variantID)
	if err != nil {
		return apierror.NotFound(fmt.Sprintf("no stock record for variant %s", variantID))
	}
	if before.Quantity+delta < 0 {
		return apierror.ResourceConflict(fmt.Sprintf(
			"adjustment would leave variant %s at %d units", variantID, before.Quantity+delta))
	}
	return l.apply(tx, variantID, delta, model.StockAdjustment, reason, nil, before.Quantity)
}

// apply mutates the counter, runs the post-mutation negative check, and
// appends the ledger row. Callers hold the transaction; any error here rolls
// back everything the caller did.
func (l *stockLedger) apply(tx *gorm.DB, variantID uuid.UUID, delta int, typ model.StockMovementType, reason string, saleID *uuid.UUID, before int) error {
	if err := l.stocks.AdjustQuantityTx(tx, variantID, delta); err != nil {
		return err
	}

	after, err := l.stocks.FindByVariantTx(tx, variantID)
	if err != nil {
		return err
	}
	// Belt-and-suspenders: the sufficiency check and the decrement are not
	// one database operation, so a racing transaction can slip between them.
	if after.Quantity < 0 {
		return apierror.Integrity(fmt.Sprintf(
			"stock for variant %s went negative (%d) after %s", variantID, after.Quantity, typ))
	}

	return l.movements.CreateTx(tx, &model.StockMovement{
		VariantID:      variantID,
		Type:           typ,
		Quantity:       delta,
		QuantityBefore: before,
		QuantityAfter:  after.Quantity,
		Reason:         reason,
		SaleID:         saleID,
	})
}
