package service

import (
	"context"
	"time"

	"repairdesk_backend/internal/calendar/repository"
	"repairdesk_backend/internal/calendar/transport"
	"repairdesk_backend/internal/events"

	"github.com/google/uuid"
)

// Divergence classes reported by the reconciler.
const (
	DivergenceOrphanOrder = "orphan_order"
	DivergenceOrphanEvent = "orphan_event"
	DivergenceFieldDrift  = "field_drift"
)

// Divergence is one mismatch between the orders table and the projection.
type Divergence struct {
	Class  string
	Order  *OrderSnapshot
	Event  *repository.Event
	Detail string
}

// Reconcile compares every scheduled order against the projection. With fix
// false the run is read-only and only reports; with fix true each divergence
// is repaired toward the orders table, which always wins.
func (s *Service) Reconcile(ctx context.Context, fix bool) (*transport.ReconcileResponse, error) {
	orders, err := s.source.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}
	eventRows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	divergences := detectDivergences(orders, eventRows, s.cfg.GetReconcileTolerance())

	repaired := 0
	out := make([]transport.DivergenceResponse, 0, len(divergences))
	for _, d := range divergences {
		orderID := orderIDOf(d)
		s.log.SyncDivergence(d.Class, orderID.String())
		out = append(out, transport.DivergenceResponse{
			Class:   d.Class,
			OrderID: orderID,
			Detail:  d.Detail,
		})

		if !fix {
			continue
		}
		action, err := s.repair(ctx, d)
		if err != nil {
			s.log.Error("failed to repair calendar divergence",
				"class", d.Class, "orderId", orderID, "error", err)
			continue
		}
		repaired++
		s.bus.Publish(ctx, events.CalendarDriftRepaired{
			BaseEvent: events.NewBaseEvent(),
			OrderID:   orderID,
			Class:     d.Class,
			Action:    action,
		})
	}

	return &transport.ReconcileResponse{
		CheckedOrders: len(orders),
		CheckedEvents: len(eventRows),
		Divergences:   out,
		Repaired:      repaired,
		DryRun:        !fix,
	}, nil
}

func (s *Service) repair(ctx context.Context, d Divergence) (string, error) {
	switch d.Class {
	case DivergenceOrphanEvent:
		return "deleted", s.store.DeleteByOrder(ctx, d.Event.LinkedOrderID)
	default:
		// orphan_order and field_drift both resolve by reprojecting the order
		if err := s.Upsert(ctx, *d.Order); err != nil {
			return "", err
		}
		return "reprojected", nil
	}
}

// detectDivergences is the pure comparison core of the reconciler.
func detectDivergences(orders []OrderSnapshot, eventRows []repository.Event, tolerance time.Duration) []Divergence {
	eventsByOrder := make(map[string]*repository.Event, len(eventRows))
	for i := range eventRows {
		eventsByOrder[eventRows[i].LinkedOrderID.String()] = &eventRows[i]
	}

	var out []Divergence
	seen := make(map[string]bool, len(orders))
	for i := range orders {
		order := &orders[i]
		seen[order.OrderID.String()] = true

		event, ok := eventsByOrder[order.OrderID.String()]
		if !ok {
			out = append(out, Divergence{Class: DivergenceOrphanOrder, Order: order, Detail: "scheduled order has no calendar event"})
			continue
		}
		if detail := driftDetail(order, event, tolerance); detail != "" {
			out = append(out, Divergence{Class: DivergenceFieldDrift, Order: order, Event: event, Detail: detail})
		}
	}

	for i := range eventRows {
		event := &eventRows[i]
		if !seen[event.LinkedOrderID.String()] {
			out = append(out, Divergence{Class: DivergenceOrphanEvent, Event: event, Detail: "event's order is closed or unscheduled"})
		}
	}

	return out
}

func driftDetail(order *OrderSnapshot, event *repository.Event, tolerance time.Duration) string {
	if order.ScheduledStart != nil && absDuration(event.StartTime.Sub(*order.ScheduledStart)) > tolerance {
		return "start time drift"
	}
	if order.ScheduledEnd != nil && absDuration(event.EndTime.Sub(*order.ScheduledEnd)) > tolerance {
		return "end time drift"
	}
	if class, _ := ClassForStatus(order.Status); string(class) != event.StatusClass {
		return "status class drift"
	}
	if !uuidPtrEqual(order.TechnicianID, event.TechnicianID) {
		return "technician drift"
	}
	return ""
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func orderIDOf(d Divergence) uuid.UUID {
	if d.Order != nil {
		return d.Order.OrderID
	}
	return d.Event.LinkedOrderID
}
