// Package adapters wires modules together without letting their service
// packages import each other. Each adapter translates one module's port
// into another module's API.
package adapters

import (
	"context"

	calendarservice "repairdesk_backend/internal/calendar/service"
	ordersservice "repairdesk_backend/internal/orders/service"
)

// CalendarProjectorAdapter lets the orders service project order state
// onto the calendar without importing the calendar module.
type CalendarProjectorAdapter struct {
	calendar *calendarservice.Service
}

// NewCalendarProjectorAdapter creates the projector adapter.
func NewCalendarProjectorAdapter(calendar *calendarservice.Service) *CalendarProjectorAdapter {
	return &CalendarProjectorAdapter{calendar: calendar}
}

// ProjectOrder maps the order snapshot into a calendar upsert.
func (a *CalendarProjectorAdapter) ProjectOrder(ctx context.Context, snap ordersservice.ProjectionSnapshot) error {
	return a.calendar.Upsert(ctx, calendarservice.OrderSnapshot{
		OrderID:        snap.OrderID,
		OrderNumber:    snap.OrderNumber,
		Status:         snap.Status,
		ClientName:     snap.ClientName,
		AddressStreet:  snap.AddressStreet,
		AddressCity:    snap.AddressCity,
		TechnicianID:   snap.TechnicianID,
		ScheduledStart: snap.ScheduledStart,
		ScheduledEnd:   snap.ScheduledEnd,
	})
}

var _ ordersservice.CalendarProjector = (*CalendarProjectorAdapter)(nil)
