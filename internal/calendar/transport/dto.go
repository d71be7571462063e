package transport

import (
	"time"

	"github.com/google/uuid"
)

// ListEventsRequest is the query parameters for the calendar view.
type ListEventsRequest struct {
	From         time.Time  `form:"from" time_format:"2006-01-02" validate:"required"`
	To           time.Time  `form:"to" time_format:"2006-01-02" validate:"required"`
	TechnicianID *uuid.UUID `form:"technicianId"`
}

// EventResponse is one calendar event in the view.
type EventResponse struct {
	ID            uuid.UUID  `json:"id"`
	LinkedOrderID uuid.UUID  `json:"linkedOrderId"`
	Title         string     `json:"title"`
	StatusClass   string     `json:"statusClass"`
	TechnicianID  *uuid.UUID `json:"technicianId,omitempty"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Address       string     `json:"address"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DivergenceResponse is one detected divergence between the orders table and
// the calendar projection.
type DivergenceResponse struct {
	Class   string    `json:"class"`
	OrderID uuid.UUID `json:"orderId"`
	Detail  string    `json:"detail,omitempty"`
}

// ReconcileResponse is the report of a reconciliation run.
type ReconcileResponse struct {
	CheckedOrders int                  `json:"checkedOrders"`
	CheckedEvents int                  `json:"checkedEvents"`
	Divergences   []DivergenceResponse `json:"divergences"`
	Repaired      int                  `json:"repaired"`
	DryRun        bool                 `json:"dryRun"`
}
