// Package evidence provides the evidence receipt domain module.
package evidence

import (
	"repairdesk_backend/internal/adapters/storage"
	"repairdesk_backend/internal/evidence/handler"
	"repairdesk_backend/internal/evidence/repository"
	apphttp "repairdesk_backend/internal/http"
	"repairdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the evidence domain module
type Module struct {
	handler *handler.Handler
}

// NewModule creates a new evidence module with all dependencies wired
func NewModule(pool *pgxpool.Pool, objectStore storage.ObjectStore, bucket string, val *validator.Validator) *Module {
	repo := repository.New(pool)
	h := handler.New(repo, objectStore, bucket, val)

	return &Module{handler: h}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "evidence"
}

// RegisterRoutes registers the module's routes under /api/v1/orders/:id/evidence
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ev := ctx.V1.Group("/orders/:id/evidence")
	m.handler.RegisterRoutes(ev)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
