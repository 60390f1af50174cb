package dto

import "github.com/shopspring/decimal"

// VariantFilter is bound from the query string of GET /v1/variants.
type VariantFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Active   string `form:"active"` // "false" | "all" | default: active only
	LowStock bool   `form:"low_stock"`
	Page     int    `form:"page,default=1"    validate:"min=1"`
	Limit    int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type VariantResponse struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Product  string          `json:"product"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	Quantity int             `json:"quantity"`
	MinStock int             `json:"min_stock"`
	Active   bool            `json:"active"`
}

type VariantListResponse struct {
	Data  []VariantResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// AdjustStockRequest is a manual back-office correction, recorded in the
// ledger as an ADJUSTMENT movement.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}

// ReceiveStockRequest records delivered goods as an IN movement.
type ReceiveStockRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Reason   string `json:"reason"`
}

// StockMovementResponse is one ledger row for the audit listing.
type StockMovementResponse struct {
	ID             string  `json:"id"`
	VariantID      string  `json:"variant_id"`
	Type           string  `json:"type"`
	Quantity       int     `json:"quantity"`
	QuantityBefore int     `json:"quantity_before"`
	QuantityAfter  int     `json:"quantity_after"`
	Reason         string  `json:"reason"`
	SaleID         *string `json:"sale_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// PriceCheckResponse backs the public SKU price lookup; served from cache
// when possible.
type PriceCheckResponse struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	InStock  bool            `json:"in_stock"`
	Quantity int             `json:"quantity"`
}
