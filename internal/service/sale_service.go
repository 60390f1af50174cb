package service

import (
	"context"
	"fmt"
	"time"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"
	"github.com/napestudio/stock-control-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// walkInEmail identifies the shared counter customer used by quick sales,
// which carry no customer of their own.
const walkInEmail = "walkin@pos.local"

type SaleService interface {
	CreateDraft(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	AddItem(ctx context.Context, userID, saleID uuid.UUID, req dto.AddItemRequest) (*dto.SaleItemResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	SetItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*dto.SaleItemResponse, error)
	Complete(ctx context.Context, userID, saleID uuid.UUID, req dto.CompleteSaleRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, userID, saleID uuid.UUID) error
	Refund(ctx context.Context, saleID uuid.UUID, reason string) (*dto.SaleResponse, error)
	QuickSale(ctx context.Context, userID uuid.UUID, req dto.QuickSaleRequest) (*dto.SaleResponse, error)
	Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales      repository.SaleRepository
	variants   repository.VariantRepository
	stocks     repository.StockRepository
	customers  repository.CustomerRepository
	sessions   repository.SessionRepository
	ledger     StockLedger
	dispatcher *worker.Dispatcher
}

func NewSaleService(
	sales repository.SaleRepository,
	variants repository.VariantRepository,
	stocks repository.StockRepository,
	customers repository.CustomerRepository,
	sessions repository.SessionRepository,
	ledger StockLedger,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		sales:      sales,
		variants:   variants,
		stocks:     stocks,
		customers:  customers,
		sessions:   sessions,
		ledger:     ledger,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateDraft ──────────────────────────────────────────────────────────────

func (s *saleService) CreateDraft(ctx context.Context, userID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	sessionID, err := s.resolveSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	sale := &model.Sale{
		Status:        model.SalePending,
		UserID:        userID,
		CashSessionID: sessionID,
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// resolveSession returns the session to link a new sale to. An explicit id
// must reference an OPEN session; with no id the caller's own open session is
// linked best-effort — having none is not an error at creation time.
func (s *saleService) resolveSession(ctx context.Context, userID uuid.UUID, explicit *string) (*uuid.UUID, error) {
	if explicit != nil {
		id, err := uuid.Parse(*explicit)
		if err != nil {
			return nil, apierror.Validation("invalid session_id")
		}
		sess, err := s.sessions.FindByID(ctx, id)
		if err != nil {
			return nil, apierror.NotFound("cash session not found")
		}
		if sess.Status != model.SessionOpen {
			return nil, apierror.StateConflict("cash session is closed")
		}
		return &id, nil
	}

	sess, err := s.sessions.FindOpenByUser(ctx, userID)
	if err != nil || sess == nil {
		return nil, nil
	}
	return &sess.ID, nil
}

// ── Draft item mutations ─────────────────────────────────────────────────────

func (s *saleService) AddItem(ctx context.Context, userID, saleID uuid.UUID, req dto.AddItemRequest) (*dto.SaleItemResponse, error) {
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		return nil, apierror.Validation("invalid variant_id")
	}
	if req.Quantity <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero")
	}

	sale, err := s.findOwnedSale(ctx, userID, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != model.SalePending {
		return nil, apierror.StateConflict("items can only be added to a pending sale")
	}

	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, apierror.NotFound("variant not found")
	}
	if !variant.Active {
		return nil, apierror.Validation(fmt.Sprintf("variant %s is inactive", variant.SKU))
	}

	// Accumulate by variant rather than creating duplicate lines.
	item, err := s.sales.FindItemBySaleAndVariant(ctx, saleID, variantID)
	if err == nil && item != nil {
		item.Quantity += req.Quantity
		if err := s.sales.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
	} else {
		// Price/cost stay zero while the draft is mutable; they are frozen
		// only inside the completion transaction.
		item = &model.SaleItem{
			SaleID:    saleID,
			VariantID: variantID,
			Quantity:  req.Quantity,
		}
		if err := s.sales.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	}

	// Advisory stock check: a warning only. The authoritative re-check runs
	// inside the completion transaction.
	if stock, serr := s.stocks.FindByVariant(ctx, variantID); serr == nil && stock.Quantity < item.Quantity {
		log.Warn().
			Str("sale_id", saleID.String()).
			Str("variant_id", variantID.String()).
			Int("on_hand", stock.Quantity).
			Int("requested", item.Quantity).
			Msg("draft item exceeds on-hand stock")
	}

	item.Variant = variant
	return itemToResponse(item), nil
}

func (s *saleService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.sales.FindItemByID(ctx, itemID)
	if err != nil {
		return apierror.NotFound("sale item not found")
	}
	sale, err := s.findOwnedSale(ctx, userID, item.SaleID)
	if err != nil {
		return err
	}
	if sale.Status != model.SalePending {
		return apierror.StateConflict("items can only be removed from a pending sale")
	}
	return s.sales.DeleteItem(ctx, itemID)
}

func (s *saleService) SetItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*dto.SaleItemResponse, error) {
	if qty <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero")
	}
	item, err := s.sales.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, apierror.NotFound("sale item not found")
	}
	sale, err := s.findOwnedSale(ctx, userID, item.SaleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != model.SalePending {
		return nil, apierror.StateConflict("quantity can only be changed on a pending sale")
	}

	item.Quantity = qty
	if err := s.sales.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return itemToResponse(item), nil
}

func (s *saleService) findOwnedSale(ctx context.Context, userID, saleID uuid.UUID) (*model.Sale, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	if sale.UserID != userID {
		return nil, apierror.NotFound("sale not found")
	}
	return sale, nil
}

// ── Complete ─────────────────────────────────────────────────────────────────
// The core atomic transaction: customer resolve, price freeze, stock debit,
// payment rows, cash movements and status flip commit together or not at all.
// A failed attempt leaves the sale PENDING for the caller to retry.

func (s *saleService) Complete(ctx context.Context, userID, saleID uuid.UUID, req dto.CompleteSaleRequest) (*dto.SaleResponse, error) {
	tenders, err := parseTenders(req.Payments)
	if err != nil {
		return nil, err
	}

	var sessionOverride *uuid.UUID
	if req.SessionID != nil {
		id, perr := uuid.Parse(*req.SessionID)
		if perr != nil {
			return nil, apierror.Validation("invalid session_id")
		}
		sessionOverride = &id
	}

	var completed *model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		customerID, cerr := s.resolveCustomerTx(tx, req)
		if cerr != nil {
			return cerr
		}
		sale, cerr := s.completeTx(tx, userID, saleID, customerID, tenders, sessionOverride)
		if cerr != nil {
			return cerr
		}
		completed = sale
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.enqueueReceipt(ctx, completed)
	return saleToResponse(completed), nil
}

// completeTx runs steps 1–9 of the completion flow inside tx. Also the core
// of the quick-sale fast path.
func (s *saleService) completeTx(tx *gorm.DB, userID, saleID, customerID uuid.UUID, tenders []Tender, sessionOverride *uuid.UUID) (*model.Sale, error) {
	// Authoritative re-fetch: items, live variant prices and stock, inside
	// the transaction. Nothing from before the transaction is trusted.
	sale, err := s.sales.FindByIDTx(tx, saleID)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	if sale.UserID != userID {
		return nil, apierror.NotFound("sale not found")
	}
	if sale.Status != model.SalePending {
		return nil, apierror.StateConflict(fmt.Sprintf("sale is %s, only a pending sale can be completed", sale.Status))
	}
	if len(sale.Items) == 0 {
		return nil, apierror.Validation("sale has no items")
	}

	// Recompute money from the live catalog — the instant prices are frozen.
	subtotal, totalCost := decimal.Zero, decimal.Zero
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.Variant == nil {
			return nil, apierror.Integrity(fmt.Sprintf("sale item %s has no variant", item.ID))
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Variant.Price.Mul(qty))
		totalCost = totalCost.Add(item.Variant.Cost.Mul(qty))
	}
	total := subtotal.Add(sale.Tax).Sub(sale.Discount)

	if err := ValidateTender(total, tenders); err != nil {
		return nil, err
	}

	// Debit stock and freeze the per-line snapshots.
	for i := range sale.Items {
		item := &sale.Items[i]
		if err := s.ledger.DebitTx(tx, item.VariantID, item.Quantity,
			fmt.Sprintf("sale %s", sale.ID), &sale.ID); err != nil {
			return nil, err
		}
		item.PriceAtSale = item.Variant.Price
		item.CostAtSale = item.Variant.Cost
		if err := s.sales.UpdateItemTx(tx, item); err != nil {
			return nil, err
		}
	}

	for _, t := range tenders {
		if err := s.sales.CreatePaymentTx(tx, &model.Payment{
			SaleID: sale.ID,
			Method: t.Method,
			Amount: t.Amount,
		}); err != nil {
			return nil, err
		}
	}

	if sessionOverride != nil {
		sale.CashSessionID = sessionOverride
	}
	if err := s.emitSaleMovementsTx(tx, sale, tenders); err != nil {
		return nil, err
	}

	now := time.Now()
	sale.Status = model.SaleCompleted
	sale.CustomerID = &customerID
	sale.Subtotal = subtotal
	sale.Total = total
	sale.TotalCost = totalCost
	sale.CompletedAt = &now
	if err := s.sales.UpdateTx(tx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// emitSaleMovementsTx writes one SALE cash movement per tender when the sale
// is linked to a session that is still open. The open check is re-run here —
// the session may have closed between draft and completion, which silently
// drops the drawer link rather than failing the sale.
func (s *saleService) emitSaleMovementsTx(tx *gorm.DB, sale *model.Sale, tenders []Tender) error {
	if sale.CashSessionID == nil {
		return nil
	}
	sess, err := s.sessions.FindByIDTx(tx, *sale.CashSessionID)
	if err != nil {
		return apierror.NotFound("linked cash session not found")
	}
	if sess.Status != model.SessionOpen {
		sale.CashSessionID = nil
		return nil
	}
	for _, t := range tenders {
		if err := s.sessions.CreateMovementTx(tx, &model.CashMovement{
			SessionID:   sess.ID,
			Type:        model.MovementSale,
			Method:      t.Method,
			Amount:      t.Amount,
			Description: fmt.Sprintf("sale %s", sale.ID),
			SaleID:      &sale.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// resolveCustomerTx resolves the paying customer inside the completion
// transaction: by id, or upsert-by-email (create if unseen, else refresh the
// mutable contact fields).
func (s *saleService) resolveCustomerTx(tx *gorm.DB, req dto.CompleteSaleRequest) (uuid.UUID, error) {
	if req.CustomerID != nil {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return uuid.Nil, apierror.Validation("invalid customer_id")
		}
		if _, err := s.customers.FindByIDTx(tx, id); err != nil {
			return uuid.Nil, apierror.NotFound("customer not found")
		}
		return id, nil
	}
	if req.Customer == nil {
		return uuid.Nil, apierror.Validation("a customer id or customer data is required to complete a sale")
	}
	return s.upsertCustomerTx(tx, req.Customer.Name, req.Customer.Email, req.Customer.Phone)
}

func (s *saleService) upsertCustomerTx(tx *gorm.DB, name, email string, phone *string) (uuid.UUID, error) {
	existing, err := s.customers.FindByEmailTx(tx, email)
	if err == nil && existing != nil {
		existing.Name = name
		if phone != nil {
			existing.Phone = phone
		}
		if err := s.customers.UpdateTx(tx, existing); err != nil {
			return uuid.Nil, err
		}
		return existing.ID, nil
	}

	c := &model.Customer{Name: name, Email: email, Phone: phone}
	if err := s.customers.CreateTx(tx, c); err != nil {
		return uuid.Nil, err
	}
	return c.ID, nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────
// A pending draft never touched stock or cash, so cancel is a plain delete.

func (s *saleService) Cancel(ctx context.Context, userID, saleID uuid.UUID) error {
	return runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		sale, err := s.sales.FindByIDTx(tx, saleID)
		if err != nil {
			return apierror.NotFound("sale not found")
		}
		if sale.UserID != userID {
			return apierror.NotFound("sale not found")
		}
		if sale.Status != model.SalePending {
			return apierror.StateConflict("only a pending sale can be canceled")
		}
		return s.sales.DeleteTx(tx, saleID)
	})
}

// ── Refund ───────────────────────────────────────────────────────────────────
// The inverse transaction: credits stock back and mirrors every original
// payment with a negative REFUND movement. Always the full sale — partial
// refunds are not supported.

func (s *saleService) Refund(ctx context.Context, saleID uuid.UUID, reason string) (*dto.SaleResponse, error) {
	var refunded *model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		sale, err := s.sales.FindByIDTx(tx, saleID)
		if err != nil {
			return apierror.NotFound("sale not found")
		}
		if sale.Status == model.SaleRefunded {
			return apierror.StateConflict("sale has already been refunded")
		}
		if sale.Status != model.SaleCompleted {
			return apierror.StateConflict(fmt.Sprintf("sale is %s, only a completed sale can be refunded", sale.Status))
		}

		// Refunding into a closed drawer would leave the discrepancy
		// unattributable, so the linked session must still be open.
		var session *model.CashSession
		if sale.CashSessionID != nil {
			session, err = s.sessions.FindByIDTx(tx, *sale.CashSessionID)
			if err != nil {
				return apierror.NotFound("linked cash session not found")
			}
			if session.Status != model.SessionOpen {
				return apierror.StateConflict("cannot refund a sale linked to a closed cash session")
			}
		}

		for i := range sale.Items {
			item := &sale.Items[i]
			if err := s.ledger.CreditTx(tx, item.VariantID, item.Quantity, model.StockReturn,
				fmt.Sprintf("refund of sale %s: %s", sale.ID, reason), &sale.ID); err != nil {
				return err
			}
		}

		if session != nil {
			for _, p := range sale.Payments {
				if err := s.sessions.CreateMovementTx(tx, &model.CashMovement{
					SessionID:   session.ID,
					Type:        model.MovementRefund,
					Method:      p.Method,
					Amount:      p.Amount.Neg(),
					Description: fmt.Sprintf("refund of sale %s: %s", sale.ID, reason),
					SaleID:      &sale.ID,
				}); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		sale.Status = model.SaleRefunded
		sale.RefundReason = &reason
		sale.RefundedAt = &now
		if err := s.sales.UpdateTx(tx, sale); err != nil {
			return err
		}
		refunded = sale
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return saleToResponse(refunded), nil
}

// ── QuickSale ────────────────────────────────────────────────────────────────
// Single item, single tender, one transaction. Composes the same completion
// core as the regular flow; the customer is the shared walk-in record.

func (s *saleService) QuickSale(ctx context.Context, userID uuid.UUID, req dto.QuickSaleRequest) (*dto.SaleResponse, error) {
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		return nil, apierror.Validation("invalid variant_id")
	}
	if req.Quantity <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero")
	}
	method := model.PaymentMethod(req.Method)
	if !model.ValidPaymentMethod(method) {
		return nil, apierror.Validation(fmt.Sprintf("unknown payment method %q", req.Method))
	}

	sessionID, err := s.resolveSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	var completed *model.Sale
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		variant, verr := s.variants.FindByIDTx(tx, variantID)
		if verr != nil {
			return apierror.NotFound("variant not found")
		}
		if !variant.Active {
			return apierror.Validation(fmt.Sprintf("variant %s is inactive", variant.SKU))
		}

		sale := &model.Sale{
			Status:        model.SalePending,
			UserID:        userID,
			CashSessionID: sessionID,
			Items: []model.SaleItem{{
				VariantID: variantID,
				Quantity:  req.Quantity,
			}},
		}
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return err
		}

		customerID, cerr := s.upsertCustomerTx(tx, "Walk-in customer", walkInEmail, nil)
		if cerr != nil {
			return cerr
		}

		tender := []Tender{{
			Method: method,
			Amount: variant.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}}
		done, cerr := s.completeTx(tx, userID, sale.ID, customerID, tender, nil)
		if cerr != nil {
			return cerr
		}
		completed = done
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return saleToResponse(completed), nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) Get(ctx context.Context, saleID uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, apierror.NotFound("sale not found")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// enqueueReceipt dispatches the post-sale receipt job. Best effort: the sale
// is already committed and a queue failure must never surface to the seller.
func (s *saleService) enqueueReceipt(ctx context.Context, sale *model.Sale) {
	if s.dispatcher == nil || sale == nil {
		return
	}
	if err := s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
		SaleID: sale.ID.String(),
	}); err != nil {
		log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to enqueue receipt job")
	}
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

func parseTenders(payments []dto.TenderRequest) ([]Tender, error) {
	if len(payments) == 0 {
		return nil, apierror.Validation("at least one payment is required")
	}
	tenders := make([]Tender, 0, len(payments))
	for _, p := range payments {
		tenders = append(tenders, Tender{
			Method: model.PaymentMethod(p.Method),
			Amount: p.Amount,
		})
	}
	return tenders, nil
}

func itemToResponse(it *model.SaleItem) *dto.SaleItemResponse {
	resp := &dto.SaleItemResponse{
		ID:          it.ID.String(),
		VariantID:   it.VariantID.String(),
		Quantity:    it.Quantity,
		PriceAtSale: it.PriceAtSale,
		Subtotal:    it.PriceAtSale.Mul(decimal.NewFromInt(int64(it.Quantity))),
	}
	if it.Variant != nil {
		resp.Variant = it.Variant.Name
		resp.SKU = it.Variant.SKU
	}
	return resp
}

func saleToResponse(sale *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for i := range sale.Items {
		items = append(items, *itemToResponse(&sale.Items[i]))
	}
	payments := make([]dto.PaymentResponse, 0, len(sale.Payments))
	for _, p := range sale.Payments {
		payments = append(payments, dto.PaymentResponse{Method: string(p.Method), Amount: p.Amount})
	}

	resp := &dto.SaleResponse{
		ID:        sale.ID.String(),
		Status:    string(sale.Status),
		Items:     items,
		Payments:  payments,
		Subtotal:  sale.Subtotal,
		Tax:       sale.Tax,
		Discount:  sale.Discount,
		Total:     sale.Total,
		UserID:    sale.UserID.String(),
		CreatedAt: sale.CreatedAt.Format(time.RFC3339),
	}
	if sale.CustomerID != nil {
		id := sale.CustomerID.String()
		resp.CustomerID = &id
	}
	if sale.CashSessionID != nil {
		id := sale.CashSessionID.String()
		resp.SessionID = &id
	}
	if sale.CompletedAt != nil {
		t := sale.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &t
	}
	return resp
}
