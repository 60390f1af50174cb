package handler

import (
	"net/http"

	"github.com/napestudio/stock-control-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// PriceCheckHandler serves the public SKU price lookup. No authentication
// required — no side effects whatsoever.
type PriceCheckHandler struct{ svc service.CatalogService }

func NewPriceCheckHandler(svc service.CatalogService) *PriceCheckHandler {
	return &PriceCheckHandler{svc: svc}
}

// BySKU godoc
// @Summary      Price check by SKU (no authentication)
// @Tags         price
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} dto.PriceCheckResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/price/{sku} [get]
func (h *PriceCheckHandler) BySKU(c *gin.Context) {
	resp, err := h.svc.PriceCheck(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
