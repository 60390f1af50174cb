package service

import (
	"fmt"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/shopspring/decimal"
)

// paymentTolerance absorbs display/float rounding on tendered amounts. It is
// not an allowance for underpayment.
var paymentTolerance = decimal.New(1, -2) // 0.01

// Tender is one (method, amount) pair contributed toward a sale total.
type Tender struct {
	Method model.PaymentMethod
	Amount decimal.Decimal
}

// ValidateTender checks that the tender lines exactly cover total within the
// fixed tolerance. Pure validation — no side effects. Zero or negative lines
// are rejected outright; they are not valid tender.
func ValidateTender(total decimal.Decimal, tenders []Tender) error {
	if len(tenders) == 0 {
		return apierror.Validation("at least one payment is required")
	}

	sum := decimal.Zero
	for _, t := range tenders {
		if !model.ValidPaymentMethod(t.Method) {
			return apierror.Validation(fmt.Sprintf("unknown payment method %q", t.Method))
		}
		if !t.Amount.IsPositive() {
			return apierror.Validation(fmt.Sprintf(
				"payment amount must be positive, got %s (%s)", t.Amount.StringFixed(2), t.Method))
		}
		sum = sum.Add(t.Amount)
	}

	if sum.Sub(total).Abs().GreaterThan(paymentTolerance) {
		return apierror.Validation(fmt.Sprintf(
			"payments must sum to exactly %s, got %s", total.StringFixed(2), sum.StringFixed(2)))
	}
	return nil
}
