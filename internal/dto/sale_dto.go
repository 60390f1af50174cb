package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateSaleRequest opens a draft sale. SessionID is optional — when absent
// the caller's currently open session (if any) is linked best-effort.
type CreateSaleRequest struct {
	SessionID *string `json:"session_id" validate:"omitempty,uuid"`
}

type AddItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// TenderRequest is one (method, amount) pair contributed toward the total.
type TenderRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash credit_card debit_card transfer check other"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// CustomerData carries upsert-by-email fields when no existing customer id
// is supplied.
type CustomerData struct {
	Name  string  `json:"name"  validate:"required,min=2"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone"`
}

type CompleteSaleRequest struct {
	Payments   []TenderRequest `json:"payments"    validate:"required,min=1,dive"`
	CustomerID *string         `json:"customer_id" validate:"omitempty,uuid"`
	Customer   *CustomerData   `json:"customer"`
	SessionID  *string         `json:"session_id"  validate:"omitempty,uuid"`
}

type RefundSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// QuickSaleRequest collapses create + add item + complete for the
// single-item, single-payment scan-and-sell path.
type QuickSaleRequest struct {
	VariantID string  `json:"variant_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity"   validate:"required,min=1"`
	Method    string  `json:"method"     validate:"required,oneof=cash credit_card debit_card transfer check other"`
	SessionID *string `json:"session_id" validate:"omitempty,uuid"`
}

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date   string `form:"date"`   // YYYY-MM-DD; empty = today
	Status string `form:"status"` // PENDING | COMPLETED | CANCELED | REFUNDED | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ID          string          `json:"id"`
	VariantID   string          `json:"variant_id"`
	Variant     string          `json:"variant"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type PaymentResponse struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type SaleResponse struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	Items       []SaleItemResponse `json:"items"`
	Payments    []PaymentResponse  `json:"payments"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Tax         decimal.Decimal    `json:"tax"`
	Discount    decimal.Decimal    `json:"discount"`
	Total       decimal.Decimal    `json:"total"`
	CustomerID  *string            `json:"customer_id"`
	SessionID   *string            `json:"session_id"`
	UserID      string             `json:"user_id"`
	CreatedAt   string             `json:"created_at"`
	CompletedAt *string            `json:"completed_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
