package service

// In-memory repository fakes used across the service tests. They ignore the
// *gorm.DB parameter (the services run in unit-test mode with a nil DB, so
// runTx calls straight through) and return gorm.ErrRecordNotFound where the
// real implementations would.

import (
	"context"
	"strings"
	"time"

	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Variants ─────────────────────────────────────────────────────────────────

type fakeVariantRepo struct {
	variants map[uuid.UUID]*model.ProductVariant
}

func newFakeVariantRepo() *fakeVariantRepo {
	return &fakeVariantRepo{variants: make(map[uuid.UUID]*model.ProductVariant)}
}

func (f *fakeVariantRepo) add(v *model.ProductVariant) *model.ProductVariant {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.variants[v.ID] = v
	return v
}

func (f *fakeVariantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := f.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (f *fakeVariantRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeVariantRepo) FindBySKU(_ context.Context, sku string) (*model.ProductVariant, error) {
	for _, v := range f.variants {
		if v.SKU == sku && v.Active {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeVariantRepo) List(_ context.Context, _ dto.VariantFilter) ([]model.ProductVariant, int64, error) {
	out := make([]model.ProductVariant, 0, len(f.variants))
	for _, v := range f.variants {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (f *fakeVariantRepo) DB() *gorm.DB { return nil }

var _ repository.VariantRepository = (*fakeVariantRepo)(nil)

// ── Stock ────────────────────────────────────────────────────────────────────

type fakeStockRepo struct {
	stocks map[uuid.UUID]*model.Stock // keyed by variant ID
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[uuid.UUID]*model.Stock)}
}

func (f *fakeStockRepo) set(variantID uuid.UUID, qty int) *model.Stock {
	s := &model.Stock{ID: uuid.New(), VariantID: variantID, Quantity: qty, MinStock: 5}
	f.stocks[variantID] = s
	return s
}

func (f *fakeStockRepo) FindByVariant(_ context.Context, variantID uuid.UUID) (*model.Stock, error) {
	s, ok := f.stocks[variantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeStockRepo) FindByVariantTx(_ *gorm.DB, variantID uuid.UUID) (*model.Stock, error) {
	return f.FindByVariant(context.Background(), variantID)
}

func (f *fakeStockRepo) AdjustQuantityTx(_ *gorm.DB, variantID uuid.UUID, delta int) error {
	s, ok := f.stocks[variantID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Quantity += delta
	return nil
}

var _ repository.StockRepository = (*fakeStockRepo)(nil)

// ── Stock movements ──────────────────────────────────────────────────────────

type fakeStockMovementRepo struct {
	movements []*model.StockMovement
}

func (f *fakeStockMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeStockMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if filter.VariantID != nil && m.VariantID != *filter.VariantID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*fakeStockMovementRepo)(nil)

// ── Sales ────────────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	items    map[uuid.UUID]*model.SaleItem
	variants *fakeVariantRepo
}

func newFakeSaleRepo(variants *fakeVariantRepo) *fakeSaleRepo {
	return &fakeSaleRepo{
		sales:    make(map[uuid.UUID]*model.Sale),
		items:    make(map[uuid.UUID]*model.SaleItem),
		variants: variants,
	}
}

func (f *fakeSaleRepo) DB() *gorm.DB { return nil }

func (f *fakeSaleRepo) Create(_ context.Context, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	for i := range s.Items {
		it := &s.Items[i]
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.SaleID = s.ID
		f.items[it.ID] = it
	}
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	return f.Create(context.Background(), s)
}

func (f *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	f.attachVariants(s)
	return s, nil
}

func (f *fakeSaleRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeSaleRepo) attachVariants(s *model.Sale) {
	if f.variants == nil {
		return
	}
	for i := range s.Items {
		it := &s.Items[i]
		if v, ok := f.variants.variants[it.VariantID]; ok {
			it.Variant = v
		}
	}
}

func (f *fakeSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	s, ok := f.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range s.Items {
		delete(f.items, s.Items[i].ID)
	}
	delete(f.sales, id)
	return nil
}

func (f *fakeSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	out := make([]model.Sale, 0, len(f.sales))
	for _, s := range f.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSaleRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.SaleItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return it, nil
}

func (f *fakeSaleRepo) FindItemBySaleAndVariant(_ context.Context, saleID, variantID uuid.UUID) (*model.SaleItem, error) {
	for _, it := range f.items {
		if it.SaleID == saleID && it.VariantID == variantID {
			return it, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSaleRepo) CreateItem(_ context.Context, it *model.SaleItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	f.items[it.ID] = it
	if s, ok := f.sales[it.SaleID]; ok {
		s.Items = append(s.Items, *it)
	}
	return nil
}

func (f *fakeSaleRepo) UpdateItem(_ context.Context, it *model.SaleItem) error {
	f.items[it.ID] = it
	if s, ok := f.sales[it.SaleID]; ok {
		for i := range s.Items {
			if s.Items[i].ID == it.ID {
				s.Items[i] = *it
			}
		}
	}
	return nil
}

func (f *fakeSaleRepo) UpdateItemTx(_ *gorm.DB, it *model.SaleItem) error {
	return f.UpdateItem(context.Background(), it)
}

func (f *fakeSaleRepo) DeleteItem(_ context.Context, id uuid.UUID) error {
	it, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s, ok := f.sales[it.SaleID]; ok {
		kept := s.Items[:0]
		for i := range s.Items {
			if s.Items[i].ID != id {
				kept = append(kept, s.Items[i])
			}
		}
		s.Items = kept
	}
	delete(f.items, id)
	return nil
}

func (f *fakeSaleRepo) CreatePaymentTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if s, ok := f.sales[p.SaleID]; ok {
		s.Payments = append(s.Payments, *p)
	}
	return nil
}

var _ repository.SaleRepository = (*fakeSaleRepo)(nil)

// ── Customers ────────────────────────────────────────────────────────────────

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (f *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeCustomerRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeCustomerRepo) FindByEmailTx(_ *gorm.DB, email string) (*model.Customer, error) {
	for _, c := range f.customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCustomerRepo) CreateTx(_ *gorm.DB, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.customers[c.ID] = c
	return nil
}

func (f *fakeCustomerRepo) UpdateTx(_ *gorm.DB, c *model.Customer) error {
	f.customers[c.ID] = c
	return nil
}

var _ repository.CustomerRepository = (*fakeCustomerRepo)(nil)

// ── Sessions ─────────────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	registers map[uuid.UUID]*model.CashRegister
	movements []*model.CashMovement
	// paymentSums stands in for the COMPLETED-sale payment aggregation.
	paymentSums map[model.PaymentMethod]decimal.Decimal
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions:    make(map[uuid.UUID]*model.CashSession),
		registers:   make(map[uuid.UUID]*model.CashRegister),
		paymentSums: make(map[model.PaymentMethod]decimal.Decimal),
	}
}

func (f *fakeSessionRepo) addRegister(name string) *model.CashRegister {
	r := &model.CashRegister{ID: uuid.New(), Name: name, Active: true}
	f.registers[r.ID] = r
	return r
}

func (f *fakeSessionRepo) addPayments(method model.PaymentMethod, amount decimal.Decimal) {
	f.paymentSums[method] = f.paymentSums[method].Add(amount)
}

func (f *fakeSessionRepo) DB() *gorm.DB { return nil }

func (f *fakeSessionRepo) CreateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeSessionRepo) FindOpenByRegisterTx(_ *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	for _, s := range f.sessions {
		if s.RegisterID == registerID && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) FindOpenByUserTx(_ *gorm.DB, userID uuid.UUID) (*model.CashSession, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) FindOpenByUser(_ context.Context, userID uuid.UUID) (*model.CashSession, error) {
	return f.FindOpenByUserTx(nil, userID)
}

func (f *fakeSessionRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) ListSessions(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	out := make([]model.CashSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSessionRepo) FindRegisterByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	r, ok := f.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakeSessionRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	return f.CreateMovementTx(nil, m)
}

func (f *fakeSessionRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeSessionRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range f.movements {
		if m.SessionID == sessionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) SumPaymentsByMethod(_ context.Context, _ *gorm.DB, _ uuid.UUID) (map[model.PaymentMethod]decimal.Decimal, error) {
	sums := make(map[model.PaymentMethod]decimal.Decimal, len(f.paymentSums))
	for k, v := range f.paymentSums {
		sums[k] = v
	}
	return sums, nil
}

func (f *fakeSessionRepo) SumMovementsByTypeAndMethod(_ context.Context, _ *gorm.DB, sessionID uuid.UUID) ([]repository.MovementSum, error) {
	type key struct {
		t model.CashMovementType
		m model.PaymentMethod
	}
	agg := make(map[key]decimal.Decimal)
	for _, m := range f.movements {
		if m.SessionID != sessionID {
			continue
		}
		k := key{m.Type, m.Method}
		agg[k] = agg[k].Add(m.Amount)
	}
	out := make([]repository.MovementSum, 0, len(agg))
	for k, total := range agg {
		out = append(out, repository.MovementSum{Type: k.t, Method: k.m, Total: total})
	}
	return out, nil
}

var _ repository.SessionRepository = (*fakeSessionRepo)(nil)

// ── Users ────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) add(u *model.User) *model.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)
