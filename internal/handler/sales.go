package handler

import (
	"net/http"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/middleware"
	"github.com/napestudio/stock-control-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Create godoc
// @Summary      Open a draft sale
// @Description  Creates a PENDING sale. Links the caller's open cash session when one exists.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSaleRequest true "Draft options"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	userID := currentUserID(c)

	resp, err := h.svc.CreateDraft(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddItem godoc
// @Summary      Add an item to a draft sale
// @Description  Accumulates quantity when the variant is already on the sale. Stock is only checked advisorily here.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "Sale UUID"
// @Param        body body dto.AddItemRequest true "Item detail"
// @Success      201  {object} dto.SaleItemResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales/{id}/items [post]
func (h *SalesHandler) AddItem(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.AddItem(c.Request.Context(), currentUserID(c), saleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SetItemQuantity godoc
// @Summary      Change the quantity of a draft line
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        itemId path string                 true "Sale item UUID"
// @Param        body   body dto.SetQuantityRequest true "New quantity"
// @Success      200    {object} dto.SaleItemResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/sales/items/{itemId} [patch]
func (h *SalesHandler) SetItemQuantity(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid item id"))
		return
	}
	var req dto.SetQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.SetItemQuantity(c.Request.Context(), currentUserID(c), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary      Remove a line from a draft sale
// @Tags         sales
// @Security     BearerAuth
// @Param        itemId path string true "Sale item UUID"
// @Success      204
// @Failure      400 {object} apierror.APIError
// @Router       /v1/sales/items/{itemId} [delete]
func (h *SalesHandler) RemoveItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid item id"))
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), currentUserID(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete godoc
// @Summary      Complete a pending sale
// @Description  Atomic completion: resolves the customer, freezes prices, debits stock, records payments and cash movements, flips status to COMPLETED. Fails without side effects.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Sale UUID"
// @Param        body body dto.CompleteSaleRequest true "Payments and customer"
// @Success      200  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id}/complete [post]
func (h *SalesHandler) Complete(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.CompleteSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Complete(c.Request.Context(), currentUserID(c), saleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancel a pending sale
// @Description  Discards a draft. A pending sale never touched stock or cash, so nothing is reversed.
// @Tags         sales
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Cancel(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), currentUserID(c), saleID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refund godoc
// @Summary      Refund a completed sale
// @Description  Full refund: credits stock back as RETURN movements and mirrors every payment with a negative cash movement.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Sale UUID"
// @Param        body body dto.RefundSaleRequest true "Refund reason"
// @Success      200  {object} dto.SaleResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id}/refund [post]
func (h *SalesHandler) Refund(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.RefundSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Refund(c.Request.Context(), saleID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quick godoc
// @Summary      Single-scan quick sale
// @Description  Create, price and complete a one-item sale in a single call.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.QuickSaleRequest true "Variant, quantity and method"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales/quick [post]
func (h *SalesHandler) Quick(c *gin.Context) {
	var req dto.QuickSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.QuickSale(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Get one sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date   query string false "Date YYYY-MM-DD (default: today)"
// @Param        status query string false "PENDING | COMPLETED | CANCELED | REFUNDED | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200    {object} dto.SaleListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
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

func currentUserID(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return id
}
