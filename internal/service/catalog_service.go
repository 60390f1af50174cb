package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// priceCheckTTL bounds staleness of the public price lookup cache.
const priceCheckTTL = 60 * time.Second

type CatalogService interface {
	List(ctx context.Context, filter dto.VariantFilter) (*dto.VariantListResponse, error)
	Get(ctx context.Context, variantID uuid.UUID) (*dto.VariantResponse, error)
	AdjustStock(ctx context.Context, variantID uuid.UUID, req dto.AdjustStockRequest) (*dto.VariantResponse, error)
	ReceiveStock(ctx context.Context, variantID uuid.UUID, qty int, reason string) (*dto.VariantResponse, error)
	Movements(ctx context.Context, filter repository.StockMovementFilter) ([]dto.StockMovementResponse, int64, error)
	PriceCheck(ctx context.Context, sku string) (*dto.PriceCheckResponse, error)
}

type catalogService struct {
	variants  repository.VariantRepository
	movements repository.StockMovementRepository
	ledger    StockLedger
	cache     *redis.Client
}

func NewCatalogService(
	variants repository.VariantRepository,
	movements repository.StockMovementRepository,
	ledger StockLedger,
	cache *redis.Client,
) CatalogService {
	return &catalogService{variants: variants, movements: movements, ledger: ledger, cache: cache}
}

func (s *catalogService) List(ctx context.Context, filter dto.VariantFilter) (*dto.VariantListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	variants, total, err := s.variants.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VariantResponse, 0, len(variants))
	for i := range variants {
		items = append(items, *variantToResponse(&variants[i]))
	}
	return &dto.VariantListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *catalogService) Get(ctx context.Context, variantID uuid.UUID) (*dto.VariantResponse, error) {
	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, apierror.NotFound("variant not found")
	}
	return variantToResponse(variant), nil
}

// AdjustStock applies a signed manual correction through the ledger, so the
// change lands in the movement log like any other quantity mutation.
func (s *catalogService) AdjustStock(ctx context.Context, variantID uuid.UUID, req dto.AdjustStockRequest) (*dto.VariantResponse, error) {
	if req.Delta == 0 {
		return nil, apierror.Validation("delta must not be zero")
	}

	txErr := runTx(ctx, s.variants.DB(), func(tx *gorm.DB) error {
		return s.ledger.AdjustTx(tx, variantID, req.Delta, req.Reason)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.refreshAfterStockChange(ctx, variantID)
}

// ReceiveStock credits delivered goods as an IN movement.
func (s *catalogService) ReceiveStock(ctx context.Context, variantID uuid.UUID, qty int, reason string) (*dto.VariantResponse, error) {
	if qty <= 0 {
		return nil, apierror.Validation("quantity must be greater than zero")
	}
	if reason == "" {
		reason = "goods received"
	}

	txErr := runTx(ctx, s.variants.DB(), func(tx *gorm.DB) error {
		return s.ledger.CreditTx(tx, variantID, qty, model.StockIn, reason, nil)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.refreshAfterStockChange(ctx, variantID)
}

func (s *catalogService) refreshAfterStockChange(ctx context.Context, variantID uuid.UUID) (*dto.VariantResponse, error) {
	variant, err := s.variants.FindByID(ctx, variantID)
	if err != nil {
		return nil, apierror.NotFound("variant not found")
	}
	s.invalidatePriceCheck(ctx, variant.SKU)
	return variantToResponse(variant), nil
}

func (s *catalogService) Movements(ctx context.Context, filter repository.StockMovementFilter) ([]dto.StockMovementResponse, int64, error) {
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		resp := dto.StockMovementResponse{
			ID:             m.ID.String(),
			VariantID:      m.VariantID.String(),
			Type:           string(m.Type),
			Quantity:       m.Quantity,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		}
		if m.SaleID != nil {
			id := m.SaleID.String()
			resp.SaleID = &id
		}
		out = append(out, resp)
	}
	return out, total, nil
}

// PriceCheck serves the public SKU lookup, cache first. Cache failures
// degrade to a direct read.
func (s *catalogService) PriceCheck(ctx context.Context, sku string) (*dto.PriceCheckResponse, error) {
	key := priceCheckKey(sku)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached dto.PriceCheckResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	variant, err := s.variants.FindBySKU(ctx, sku)
	if err != nil {
		return nil, apierror.NotFound(fmt.Sprintf("no active variant with SKU %s", sku))
	}

	resp := &dto.PriceCheckResponse{
		SKU:   variant.SKU,
		Name:  variant.Name,
		Price: variant.Price,
	}
	if variant.Stock != nil {
		resp.Quantity = variant.Stock.Quantity
		resp.InStock = variant.Stock.Quantity > 0
	}

	if s.cache != nil {
		if raw, merr := json.Marshal(resp); merr == nil {
			if err := s.cache.Set(ctx, key, raw, priceCheckTTL).Err(); err != nil {
				log.Warn().Err(err).Str("sku", sku).Msg("failed to cache price check")
			}
		}
	}
	return resp, nil
}

func (s *catalogService) invalidatePriceCheck(ctx context.Context, sku string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, priceCheckKey(sku)).Err(); err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("failed to invalidate price check cache")
	}
}

func priceCheckKey(sku string) string { return "pricecheck:" + sku }

func variantToResponse(v *model.ProductVariant) *dto.VariantResponse {
	resp := &dto.VariantResponse{
		ID:     v.ID.String(),
		SKU:    v.SKU,
		Name:   v.Name,
		Price:  v.Price,
		Cost:   v.Cost,
		Active: v.Active,
	}
	if v.Product != nil {
		resp.Product = v.Product.Name
	}
	if v.Stock != nil {
		resp.Quantity = v.Stock.Quantity
		resp.MinStock = v.Stock.MinStock
	}
	return resp
}
