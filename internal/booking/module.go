// Package booking provides the booking validation domain module.
package booking

import (
	"repairdesk_backend/internal/booking/handler"
	"repairdesk_backend/internal/booking/service"
	"repairdesk_backend/internal/events"
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/platform/logger"
	"repairdesk_backend/platform/validator"
)

// Module represents the booking domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new booking module with all dependencies wired
func NewModule(reader service.OrderReader, cfg service.Config, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	svc := service.New(reader, cfg, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "booking"
}

// RegisterRoutes registers the module's routes under /api/v1/bookings
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	bookings := ctx.V1.Group("/bookings")
	m.handler.RegisterRoutes(bookings)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
