// Package calendar provides the calendar projection domain module.
package calendar

import (
	"repairdesk_backend/internal/calendar/handler"
	"repairdesk_backend/internal/calendar/repository"
	"repairdesk_backend/internal/calendar/service"
	"repairdesk_backend/internal/events"
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/platform/logger"
	"repairdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the calendar domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new calendar module with all dependencies wired
func NewModule(pool *pgxpool.Pool, source service.OrderSource, cfg service.Config, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, source, cfg, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "calendar"
}

// Service exposes the calendar service for cross-module wiring
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes under /api/v1/calendar,
// plus the per-order sync endpoint under /api/v1/orders.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	calendar := ctx.V1.Group("/calendar")
	m.handler.RegisterRoutes(calendar)

	ctx.V1.POST("/orders/:id/calendar-sync", m.handler.SyncOrder)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
