// Package workshop provides the workshop queue domain module.
package workshop

import (
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/internal/workshop/handler"
	"repairdesk_backend/internal/workshop/service"
	"repairdesk_backend/platform/logger"
)

// Module represents the workshop domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new workshop module with all dependencies wired
func NewModule(reader service.OrderReader, cfg service.Config, log *logger.Logger) *Module {
	svc := service.New(reader, cfg, log)
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "workshop"
}

// RegisterRoutes registers the module's routes under /api/v1/workshop
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	workshop := ctx.V1.Group("/workshop")
	m.handler.RegisterRoutes(workshop)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
