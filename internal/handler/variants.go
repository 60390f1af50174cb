package handler

import (
	"net/http"
	"strconv"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/repository"
	"github.com/napestudio/stock-control-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VariantsHandler struct{ svc service.CatalogService }

func NewVariantsHandler(svc service.CatalogService) *VariantsHandler {
	return &VariantsHandler{svc: svc}
}

// List godoc
// @Summary      List catalog variants
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        sku       query string false "Exact SKU"
// @Param        name      query string false "Name substring"
// @Param        active    query string false "false | all (default: active only)"
// @Param        low_stock query bool   false "Only variants at or under min stock"
// @Success      200 {object} dto.VariantListResponse
// @Router       /v1/variants [get]
func (h *VariantsHandler) List(c *gin.Context) {
	var filter dto.VariantFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one variant
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Variant UUID"
// @Success      200 {object} dto.VariantResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/variants/{id} [get]
func (h *VariantsHandler) Get(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid variant id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), variantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary      Manual stock correction
// @Description  Applies a signed delta through the ledger, recorded as an ADJUSTMENT movement. Never drives stock negative.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Variant UUID"
// @Param        body body dto.AdjustStockRequest true "Delta and reason"
// @Success      200  {object} dto.VariantResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/variants/{id}/stock/adjust [post]
func (h *VariantsHandler) AdjustStock(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid variant id"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.AdjustStock(c.Request.Context(), variantID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReceiveStock godoc
// @Summary      Receive delivered goods
// @Description  Credits quantity as an IN ledger movement.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Variant UUID"
// @Param        body body dto.ReceiveStockRequest true "Quantity and reason"
// @Success      200  {object} dto.VariantResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/variants/{id}/stock/receive [post]
func (h *VariantsHandler) ReceiveStock(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid variant id"))
		return
	}
	var req dto.ReceiveStockRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.ReceiveStock(c.Request.Context(), variantID, req.Quantity, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      Stock ledger audit listing
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        variant_id query string false "Filter by variant UUID"
// @Param        type       query string false "IN | OUT | ADJUSTMENT | RETURN"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 100)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/stock/movements [get]
func (h *VariantsHandler) Movements(c *gin.Context) {
	filter := repository.StockMovementFilter{
		Type: model.StockMovementType(c.Query("type")),
	}
	if raw := c.Query("variant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid variant_id"))
			return
		}
		filter.VariantID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, total, err := h.svc.Movements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  movements,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}
