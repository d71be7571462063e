package handler

import (
	"net/http"
	"strconv"

	"repairdesk_backend/internal/calendar/service"
	"repairdesk_backend/internal/calendar/transport"
	"repairdesk_backend/platform/httpkit"
	"repairdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the calendar view
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new calendar handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the calendar routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", h.ListEvents)
	rg.POST("/reconcile", h.Reconcile)
}

// SyncOrder handles POST /api/v1/orders/:id/calendar-sync. It forces a
// fresh projection of one order, useful after a missed best-effort write.
func (h *Handler) SyncOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid order id")
		return
	}

	if err := h.svc.SyncOrder(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"orderId": id, "synced": true})
}

// ListEvents handles GET /api/v1/calendar/events
func (h *Handler) ListEvents(c *gin.Context) {
	var req transport.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListEvents(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Reconcile handles POST /api/v1/calendar/reconcile. Without fix=true the
// run is a read-only report.
func (h *Handler) Reconcile(c *gin.Context) {
	fix, _ := strconv.ParseBool(c.DefaultQuery("fix", "false"))

	result, err := h.svc.Reconcile(c.Request.Context(), fix)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
