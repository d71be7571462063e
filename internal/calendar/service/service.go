// Package service maintains the calendar projection: an eventually
// consistent, per-order event view derived from the orders table. The orders
// table is the source of truth; projections here are best-effort writes and
// the reconciler repairs whatever they miss.
package service

import (
	"context"
	"fmt"
	"time"

	"repairdesk_backend/internal/calendar/repository"
	"repairdesk_backend/internal/calendar/transport"
	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// EventStore is the persistence surface the service needs.
type EventStore interface {
	UpsertByOrder(ctx context.Context, e *repository.Event) error
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*repository.Event, error)
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
	ListRange(ctx context.Context, from, to time.Time, technicianID *uuid.UUID) ([]repository.Event, error)
	ListAll(ctx context.Context) ([]repository.Event, error)
}

// OrderSource reads the orders that should be reflected on the calendar.
// Implemented by an adapter over the orders repository.
type OrderSource interface {
	ListScheduled(ctx context.Context) ([]OrderSnapshot, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderSnapshot, error)
}

// OrderSnapshot carries the order fields the calendar cares about.
type OrderSnapshot struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Status         workflow.Status
	ClientName     string
	AddressStreet  string
	AddressCity    string
	TechnicianID   *uuid.UUID
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// Config is the narrow configuration surface of the calendar service.
type Config interface {
	GetDefaultEventDuration() time.Duration
	GetReconcileTolerance() time.Duration
}

// Service provides calendar projection business logic
type Service struct {
	store  EventStore
	source OrderSource
	cfg    Config
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new calendar service
func New(store EventStore, source OrderSource, cfg Config, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, source: source, cfg: cfg, bus: bus, log: log}
}

// Upsert projects one order onto the calendar. An order without a schedule
// slot has no event, and neither does a closed order; the reconciler treats
// those events as orphans, so removing them here makes a cancel converge
// without waiting for the next sweep. Calling Upsert again with the same
// snapshot is a no-op in effect, which lets callers retry freely.
func (s *Service) Upsert(ctx context.Context, snap OrderSnapshot) error {
	if snap.ScheduledStart == nil || workflow.IsTerminal(snap.Status) {
		return s.store.DeleteByOrder(ctx, snap.OrderID)
	}

	now := time.Now()
	event := s.eventFromSnapshot(snap, now)

	class, known := ClassForStatus(snap.Status)
	if !known {
		s.log.Warn("unmapped status on calendar projection",
			"orderId", snap.OrderID, "status", snap.Status, "fallback", class)
	}

	return s.store.UpsertByOrder(ctx, event)
}

// SyncOrder re-projects a single order onto the calendar on demand.
func (s *Service) SyncOrder(ctx context.Context, orderID uuid.UUID) error {
	snap, err := s.source.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, *snap)
}

// ListEvents retrieves calendar events for the view window.
func (s *Service) ListEvents(ctx context.Context, req transport.ListEventsRequest) ([]transport.EventResponse, error) {
	items, err := s.store.ListRange(ctx, req.From, req.To, req.TechnicianID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.EventResponse, 0, len(items))
	for _, e := range items {
		out = append(out, transport.EventResponse{
			ID:            e.ID,
			LinkedOrderID: e.LinkedOrderID,
			Title:         e.Title,
			StatusClass:   e.StatusClass,
			TechnicianID:  e.TechnicianID,
			StartTime:     e.StartTime,
			EndTime:       e.EndTime,
			Address:       e.Address,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Service) eventFromSnapshot(snap OrderSnapshot, now time.Time) *repository.Event {
	start := *snap.ScheduledStart
	end := start.Add(s.cfg.GetDefaultEventDuration())
	if snap.ScheduledEnd != nil {
		end = *snap.ScheduledEnd
	}

	class, _ := ClassForStatus(snap.Status)

	address := snap.AddressStreet
	if snap.AddressCity != "" {
		address = snap.AddressStreet + ", " + snap.AddressCity
	}

	return &repository.Event{
		ID:            uuid.New(),
		LinkedOrderID: snap.OrderID,
		Title:         fmt.Sprintf("%s / %s", snap.OrderNumber, snap.ClientName),
		StatusClass:   string(class),
		TechnicianID:  snap.TechnicianID,
		StartTime:     start,
		EndTime:       end,
		Address:       address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
