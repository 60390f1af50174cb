package handler

import (
	"net/http"
	"strconv"

	"github.com/napestudio/stock-control-sub000/internal/apierror"
	"github.com/napestudio/stock-control-sub000/internal/dto"
	"github.com/napestudio/stock-control-sub000/internal/middleware"
	"github.com/napestudio/stock-control-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionsHandler struct{ svc service.SessionService }

func NewSessionsHandler(svc service.SessionService) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

// Open godoc
// @Summary      Open a cash session
// @Description  Opens a drawer session on a register. Rejected when the register or the user already has one open.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenSessionRequest true "Register and opening float"
// @Success      201  {object} dto.SessionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sessions [post]
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Open(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary      Close a cash session
// @Description  Freezes counted vs expected per method onto the session. Discrepancies are recorded, never enforced.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Session UUID"
// @Param        body body dto.CloseSessionRequest true "Counted amounts"
// @Success      200  {object} dto.SessionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sessions/{id}/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims := middleware.GetClaims(c)
	mayCloseOthers := claims.Role == "supervisor" || claims.Role == "admin"

	resp, err := h.svc.Close(c.Request.Context(), currentUserID(c), sessionID, mayCloseOthers, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Reconciliation summary
// @Description  Per-method expected amounts, re-derived from the movement and payment logs on every call.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session UUID"
// @Success      200 {object} dto.ClosingSummaryResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/{id}/summary [get]
func (h *SessionsHandler) Summary(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.Summary(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddMovement godoc
// @Summary      Record a manual drawer movement
// @Description  INCOME or EXPENSE against an open session. Expenses are stored negative.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Session UUID"
// @Param        body body dto.ManualMovementRequest true "Movement detail"
// @Success      201  {object} dto.MovementResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sessions/{id}/movements [post]
func (h *SessionsHandler) AddMovement(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.AddManualMovement(c.Request.Context(), currentUserID(c), sessionID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movements godoc
// @Summary      List drawer movements of a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session UUID"
// @Success      200 {array} dto.MovementResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/{id}/movements [get]
func (h *SessionsHandler) Movements(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.Movements(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary      The caller's open session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/active [get]
func (h *SessionsHandler) Active(c *gin.Context) {
	resp, err := h.svc.Active(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session UUID"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/{id} [get]
func (h *SessionsHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Paginated session history
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 50)"
// @Success      200   {object} map[string]interface{}
// @Router       /v1/sessions [get]
func (h *SessionsHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	sessions, total, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  sessions,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
