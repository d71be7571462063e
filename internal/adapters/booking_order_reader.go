package adapters

import (
	"context"
	"time"

	bookingservice "repairdesk_backend/internal/booking/service"
	ordersrepo "repairdesk_backend/internal/orders/repository"

	"github.com/google/uuid"
)

// BookingOrderReaderAdapter exposes slot occupancy from the orders store
// to the booking validator.
type BookingOrderReaderAdapter struct {
	orders *ordersrepo.Repository
}

// NewBookingOrderReaderAdapter creates the booking reader adapter.
func NewBookingOrderReaderAdapter(orders *ordersrepo.Repository) *BookingOrderReaderAdapter {
	return &BookingOrderReaderAdapter{orders: orders}
}

// ListOverlapping returns every booked slot intersecting [start, end).
func (a *BookingOrderReaderAdapter) ListOverlapping(ctx context.Context, start, end time.Time) ([]bookingservice.BookedSlot, error) {
	orders, err := a.orders.ListOverlappingSlot(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toBookedSlots(orders), nil
}

// ListByTechnician returns a technician's booked slots inside [start, end).
func (a *BookingOrderReaderAdapter) ListByTechnician(ctx context.Context, technicianID uuid.UUID, start, end time.Time) ([]bookingservice.BookedSlot, error) {
	orders, err := a.orders.ListByTechnicianAndSlot(ctx, technicianID, start, end)
	if err != nil {
		return nil, err
	}
	return toBookedSlots(orders), nil
}

func toBookedSlots(orders []ordersrepo.Order) []bookingservice.BookedSlot {
	slots := make([]bookingservice.BookedSlot, 0, len(orders))
	for _, o := range orders {
		// The slot queries only match rows with both bounds set.
		if o.ScheduledStart == nil || o.ScheduledEnd == nil {
			continue
		}
		slots = append(slots, bookingservice.BookedSlot{
			OrderID:      o.ID,
			TechnicianID: o.TechnicianID,
			StartTime:    *o.ScheduledStart,
			EndTime:      *o.ScheduledEnd,
		})
	}
	return slots
}

var _ bookingservice.OrderReader = (*BookingOrderReaderAdapter)(nil)
