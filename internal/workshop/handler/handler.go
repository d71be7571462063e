package handler

import (
	"repairdesk_backend/internal/workshop/service"
	"repairdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the workshop queue
type Handler struct {
	svc *service.Service
}

// New creates a new workshop handler
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the workshop routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/queue", h.Queue)
}

// Queue handles GET /api/v1/workshop/queue
func (h *Handler) Queue(c *gin.Context) {
	result, err := h.svc.Queue(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}
