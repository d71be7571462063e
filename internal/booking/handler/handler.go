package handler

import (
	"net/http"

	"repairdesk_backend/internal/booking/service"
	"repairdesk_backend/internal/booking/transport"
	"repairdesk_backend/platform/httpkit"
	"repairdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for booking validation
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new booking handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the booking routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/validate", h.Validate)
}

// Validate handles POST /api/v1/bookings/validate
func (h *Handler) Validate(c *gin.Context) {
	var req transport.ValidateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Validate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
