package service

import (
	"context"
	"testing"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleFixture struct {
	svc       SaleService
	variants  *fakeVariantRepo
	stocks    *fakeStockRepo
	sales     *fakeSaleRepo
	customers *fakeCustomerRepo
	sessions  *fakeSessionRepo
	userID    uuid.UUID
}

func newSaleFixture() *saleFixture {
	variants := newFakeVariantRepo()
	stocks := newFakeStockRepo()
	movements := &fakeStockMovementRepo{}
	sales := newFakeSaleRepo(variants)
	customers := newFakeCustomerRepo()
	sessions := newFakeSessionRepo()
	ledger := NewStockLedger(stocks, movements)

	return &saleFixture{
		svc:       NewSaleService(sales, variants, stocks, customers, sessions, ledger, nil),
		variants:  variants,
		stocks:    stocks,
		sales:     sales,
		customers: customers,
		sessions:  sessions,
		userID:    uuid.New(),
	}
}

func (f *saleFixture) addVariant(sku, price string, qty int) *model.ProductVariant {
	v := f.variants.add(&model.ProductVariant{
		SKU:    sku,
		Name:   "Variant " + sku,
		Price:  dec(price),
		Cost:   dec(price).Div(dec("2")),
		Active: true,
	})
	v.Stock = f.stocks.set(v.ID, qty)
	return v
}

func (f *saleFixture) openSession(userID uuid.UUID) *model.CashSession {
	register := f.sessions.addRegister("till 1")
	s := &model.CashSession{
		ID:            uuid.New(),
		RegisterID:    register.ID,
		UserID:        userID,
		OpeningAmount: dec("100"),
		Status:        model.SessionOpen,
	}
	f.sessions.sessions[s.ID] = s
	return s
}

func customerPayload() *dto.CustomerData {
	return &dto.CustomerData{Name: "Ada Lovelace", Email: "ada@example.com"}
}

// ── Draft lifecycle ──────────────────────────────────────────────────────────

func TestCreateDraftLinksOpenSession(t *testing.T) {
	f := newSaleFixture()
	session := f.openSession(f.userID)

	resp, err := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(model.SalePending), resp.Status)
	require.NotNil(t, resp.SessionID)
	assert.Equal(t, session.ID.String(), *resp.SessionID)
}

func TestCreateDraftWithoutSession(t *testing.T) {
	f := newSaleFixture()

	resp, err := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	require.NoError(t, err)
	assert.Nil(t, resp.SessionID, "no open session is not an error at draft time")
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 100)
	draft, err := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	require.NoError(t, err)
	saleID := uuid.MustParse(draft.ID)

	_, err = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 2})
	require.NoError(t, err)
	item, err := f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, item.Quantity, "same variant accumulates into one line")
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 100)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})

	_, err := f.svc.AddItem(context.Background(), f.userID, uuid.MustParse(draft.ID),
		dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 0})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestAddItemAllowsExceedingStockOnDraft(t *testing.T) {
	// Stock is only advisory before completion — the draft accepts the line.
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 1)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})

	item, err := f.svc.AddItem(context.Background(), f.userID, uuid.MustParse(draft.ID),
		dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)
}

func TestCancelPendingSale(t *testing.T) {
	f := newSaleFixture()
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)

	require.NoError(t, f.svc.Cancel(context.Background(), f.userID, saleID))
	_, err := f.svc.Get(context.Background(), saleID)
	assert.Error(t, err)
}

// ── Completion ───────────────────────────────────────────────────────────────

func TestCompleteHappyPath(t *testing.T) {
	f := newSaleFixture()
	session := f.openSession(f.userID)
	v := f.addVariant("SKU-1", "25", 10)

	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, err := f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 2})
	require.NoError(t, err)

	resp, err := f.svc.Complete(context.Background(), f.userID, saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{
			{Method: "cash", Amount: dec("30")},
			{Method: "credit_card", Amount: dec("20")},
		},
		Customer: customerPayload(),
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.SaleCompleted), resp.Status)
	assert.True(t, dec("50").Equal(resp.Total))
	require.NotNil(t, resp.CompletedAt)

	// Stock debited authoritatively.
	stock, _ := f.stocks.FindByVariantTx(nil, v.ID)
	assert.Equal(t, 8, stock.Quantity)

	// Price and cost frozen on the line.
	sale, _ := f.sales.FindByID(context.Background(), saleID)
	require.Len(t, sale.Items, 1)
	assert.True(t, dec("25").Equal(sale.Items[0].PriceAtSale))
	assert.True(t, dec("12.5").Equal(sale.Items[0].CostAtSale))

	// One payment row per tender.
	require.Len(t, sale.Payments, 2)

	// One SALE cash movement per tender, linked to the session.
	saleMovs := 0
	for _, m := range f.sessions.movements {
		if m.Type == model.MovementSale && m.SessionID == session.ID {
			saleMovs++
			require.NotNil(t, m.SaleID)
			assert.Equal(t, saleID, *m.SaleID)
		}
	}
	assert.Equal(t, 2, saleMovs)

	// Customer upserted by email.
	_, err = f.customers.FindByEmailTx(nil, "ada@example.com")
	assert.NoError(t, err)
}

func TestCompletePaymentMismatchRejected(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "25", 10)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, _ = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 2})

	_, err := f.svc.Complete(context.Background(), f.userID, saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{
			{Method: "cash", Amount: dec("30")},
			{Method: "credit_card", Amount: dec("15")},
		},
		Customer: customerPayload(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "50.00")
	assert.Contains(t, err.Error(), "45.00")

	// Sale still pending, stock untouched.
	sale, _ := f.sales.FindByID(context.Background(), saleID)
	assert.Equal(t, model.SalePending, sale.Status)
	stock, _ := f.stocks.FindByVariantTx(nil, v.ID)
	assert.Equal(t, 10, stock.Quantity)
}

func TestCompleteInsufficientStockRejected(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 2)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, _ = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 5})

	_, err := f.svc.Complete(context.Background(), f.userID, saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec("50")}},
		Customer: customerPayload(),
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindResourceConflict, apiErr.Kind)
}

func TestCompleteRequiresCustomer(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 10)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, _ = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 1})

	_, err := f.svc.Complete(context.Background(), f.userID, saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec("10")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}

func TestCompleteEmptySaleRejected(t *testing.T) {
	f := newSaleFixture()
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})

	_, err := f.svc.Complete(context.Background(), f.userID, uuid.MustParse(draft.ID), dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec("10")}},
		Customer: customerPayload(),
	})
	assert.Error(t, err)
}

func TestCompleteTwiceRejected(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 10)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, _ = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 1})

	req := dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec("10")}},
		Customer: customerPayload(),
	}
	_, err := f.svc.Complete(context.Background(), f.userID, saleID, req)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), f.userID, saleID, req)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindStateConflict, apiErr.Kind)
}

func TestCompleteByNonOwnerRejected(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "10", 10)
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	saleID := uuid.MustParse(draft.ID)
	_, _ = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: 1})

	_, err := f.svc.Complete(context.Background(), uuid.New(), saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec("10")}},
		Customer: customerPayload(),
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindNotFound, apiErr.Kind)
}

// ── Refund ───────────────────────────────────────────────────────────────────

func completeSimpleSale(t *testing.T, f *saleFixture, v *model.ProductVariant, qty int, amount string) uuid.UUID {
	t.Helper()
	draft, err := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})
	require.NoError(t, err)
	saleID := uuid.MustParse(draft.ID)
	_, err = f.svc.AddItem(context.Background(), f.userID, saleID, dto.AddItemRequest{VariantID: v.ID.String(), Quantity: qty})
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), f.userID, saleID, dto.CompleteSaleRequest{
		Payments: []dto.TenderRequest{{Method: "cash", Amount: dec(amount)}},
		Customer: customerPayload(),
	})
	require.NoError(t, err)
	return saleID
}

func TestRefundRestoresStockAndMirrorsPayments(t *testing.T) {
	f := newSaleFixture()
	session := f.openSession(f.userID)
	v := f.addVariant("SKU-1", "10", 10)
	saleID := completeSimpleSale(t, f, v, 2, "20")

	resp, err := f.svc.Refund(context.Background(), saleID, "changed their mind")
	require.NoError(t, err)
	assert.Equal(t, string(model.SaleRefunded), resp.Status)

	stock, _ := f.stocks.FindByVariantTx(nil, v.ID)
	assert.Equal(t, 10, stock.Quantity, "RETURN movement restores stock")

	var refundMov *model.CashMovement
	for _, m := range f.sessions.movements {
		if m.Type == model.MovementRefund && m.SessionID == session.ID {
			refundMov = m
		}
	}
	require.NotNil(t, refundMov)
	assert.True(t, dec("-20").Equal(refundMov.Amount), "refund movement is negative")
}

func TestRefundTwiceRejected(t *testing.T) {
	f := newSaleFixture()
	f.openSession(f.userID)
	v := f.addVariant("SKU-1", "10", 10)
	saleID := completeSimpleSale(t, f, v, 1, "10")

	_, err := f.svc.Refund(context.Background(), saleID, "first refund")
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), saleID, "second refund")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindStateConflict, apiErr.Kind)
}

func TestRefundIntoClosedSessionRejected(t *testing.T) {
	f := newSaleFixture()
	session := f.openSession(f.userID)
	v := f.addVariant("SKU-1", "10", 10)
	saleID := completeSimpleSale(t, f, v, 1, "10")

	session.Status = model.SessionClosed

	_, err := f.svc.Refund(context.Background(), saleID, "too late")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindStateConflict, apiErr.Kind)

	stock, _ := f.stocks.FindByVariantTx(nil, v.ID)
	assert.Equal(t, 9, stock.Quantity, "nothing reversed")
}

func TestRefundPendingSaleRejected(t *testing.T) {
	f := newSaleFixture()
	draft, _ := f.svc.CreateDraft(context.Background(), f.userID, dto.CreateSaleRequest{})

	_, err := f.svc.Refund(context.Background(), uuid.MustParse(draft.ID), "not completed yet")
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindStateConflict, apiErr.Kind)
}

// ── Quick sale ───────────────────────────────────────────────────────────────

func TestQuickSaleCompletesInOneCall(t *testing.T) {
	f := newSaleFixture()
	session := f.openSession(f.userID)
	v := f.addVariant("SKU-1", "7.5", 10)

	resp, err := f.svc.QuickSale(context.Background(), f.userID, dto.QuickSaleRequest{
		VariantID: v.ID.String(),
		Quantity:  2,
		Method:    "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, string(model.SaleCompleted), resp.Status)
	assert.True(t, dec("15").Equal(resp.Total))
	require.NotNil(t, resp.SessionID)
	assert.Equal(t, session.ID.String(), *resp.SessionID)

	stock, _ := f.stocks.FindByVariantTx(nil, v.ID)
	assert.Equal(t, 8, stock.Quantity)

	// The shared walk-in customer was created.
	walkIn, err := f.customers.FindByEmailTx(nil, walkInEmail)
	require.NoError(t, err)
	assert.Equal(t, "Walk-in customer", walkIn.Name)
}

func TestQuickSaleInsufficientStock(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "5", 1)

	_, err := f.svc.QuickSale(context.Background(), f.userID, dto.QuickSaleRequest{
		VariantID: v.ID.String(),
		Quantity:  3,
		Method:    "cash",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindResourceConflict, apiErr.Kind)
}

func TestQuickSaleUnknownMethod(t *testing.T) {
	f := newSaleFixture()
	v := f.addVariant("SKU-1", "5", 10)

	_, err := f.svc.QuickSale(context.Background(), f.userID, dto.QuickSaleRequest{
		VariantID: v.ID.String(),
		Quantity:  1,
		Method:    "barter",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierror.KindValidation, apiErr.Kind)
}
