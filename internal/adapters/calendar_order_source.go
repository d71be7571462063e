package adapters

import (
	"context"

	calendarservice "repairdesk_backend/internal/calendar/service"
	ordersrepo "repairdesk_backend/internal/orders/repository"

	"github.com/google/uuid"
)

// CalendarOrderSourceAdapter feeds the reconciler with the scheduled
// orders the calendar should mirror.
type CalendarOrderSourceAdapter struct {
	orders *ordersrepo.Repository
}

// NewCalendarOrderSourceAdapter creates the order source adapter.
func NewCalendarOrderSourceAdapter(orders *ordersrepo.Repository) *CalendarOrderSourceAdapter {
	return &CalendarOrderSourceAdapter{orders: orders}
}

// ListScheduled returns snapshots of every order holding a slot.
func (a *CalendarOrderSourceAdapter) ListScheduled(ctx context.Context) ([]calendarservice.OrderSnapshot, error) {
	orders, err := a.orders.ListScheduled(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make([]calendarservice.OrderSnapshot, len(orders))
	for i := range orders {
		snaps[i] = toOrderSnapshot(&orders[i])
	}
	return snaps, nil
}

// GetOrder returns the snapshot of a single order.
func (a *CalendarOrderSourceAdapter) GetOrder(ctx context.Context, orderID uuid.UUID) (*calendarservice.OrderSnapshot, error) {
	o, err := a.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	snap := toOrderSnapshot(o)
	return &snap, nil
}

func toOrderSnapshot(o *ordersrepo.Order) calendarservice.OrderSnapshot {
	return calendarservice.OrderSnapshot{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		ClientName:     o.ClientName,
		AddressStreet:  o.AddressStreet,
		AddressCity:    o.AddressCity,
		TechnicianID:   o.TechnicianID,
		ScheduledStart: o.ScheduledStart,
		ScheduledEnd:   o.ScheduledEnd,
	}
}

var _ calendarservice.OrderSource = (*CalendarOrderSourceAdapter)(nil)
