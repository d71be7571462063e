package adapters

import (
	"context"

	ordersrepo "repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/workflow"
	workshopservice "repairdesk_backend/internal/workshop/service"
)

// WorkshopOrderReaderAdapter exposes the workshop occupants from the
// orders store to the queue ranker.
type WorkshopOrderReaderAdapter struct {
	orders *ordersrepo.Repository
}

// NewWorkshopOrderReaderAdapter creates the workshop reader adapter.
func NewWorkshopOrderReaderAdapter(orders *ordersrepo.Repository) *WorkshopOrderReaderAdapter {
	return &WorkshopOrderReaderAdapter{orders: orders}
}

// ListAtWorkshop returns every order physically at the workshop.
func (a *WorkshopOrderReaderAdapter) ListAtWorkshop(ctx context.Context) ([]workshopservice.BenchOrder, error) {
	orders, err := a.orders.ListByLocation(ctx, workflow.LocationWorkshop)
	if err != nil {
		return nil, err
	}

	bench := make([]workshopservice.BenchOrder, len(orders))
	for i, o := range orders {
		bench[i] = workshopservice.BenchOrder{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			Status:         o.Status,
			AttendanceType: o.AttendanceType,
			ClientName:     o.ClientName,
			EquipmentType:  o.EquipmentType,
			CreatedAt:      o.CreatedAt,
		}
	}
	return bench, nil
}

var _ workshopservice.OrderReader = (*WorkshopOrderReaderAdapter)(nil)
