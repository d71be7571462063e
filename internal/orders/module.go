// Package orders provides the service-order domain module.
package orders

import (
	"repairdesk_backend/internal/events"
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/internal/orders/handler"
	"repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/orders/service"
	"repairdesk_backend/platform/logger"
	"repairdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the orders domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates a new orders module with all dependencies wired
func NewModule(pool *pgxpool.Pool, projector service.CalendarProjector, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, projector, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "orders"
}

// Service exposes the orders service for cross-module wiring
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the orders repository for cross-module readers
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes under /api/v1/orders
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	orders := ctx.V1.Group("/orders")
	m.handler.RegisterRoutes(orders)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
