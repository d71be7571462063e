// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"repairdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Order Domain Events
// =============================================================================

// OrderCreated is published when a new service order enters the system.
type OrderCreated struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	AttendanceType string    `json:"attendanceType"`
	ClientName     string    `json:"clientName"`
	ClientEmail    string    `json:"clientEmail,omitempty"`
}

func (e OrderCreated) EventName() string { return "orders.order.created" }

// OrderTransitioned is published after a status transition commits.
type OrderTransitioned struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	OrderNumber    string    `json:"orderNumber"`
	AttendanceType string    `json:"attendanceType"`
	FromStatus     string    `json:"fromStatus"`
	ToStatus       string    `json:"toStatus"`
	ActorID        uuid.UUID `json:"actorId"`
	Skipped        bool      `json:"skipped"`
	ClientEmail    string    `json:"clientEmail,omitempty"`
}

func (e OrderTransitioned) EventName() string { return "orders.order.transitioned" }

// RequirementSkipped is published when an operator commits a transition
// without the evidence it normally requires.
type RequirementSkipped struct {
	BaseEvent
	OrderID    uuid.UUID `json:"orderId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    uuid.UUID `json:"actorId"`
	Reason     string    `json:"reason"`
}

func (e RequirementSkipped) EventName() string { return "orders.requirement.skipped" }

// OrderScheduled is published when a visit, collection, or delivery slot is
// assigned to an order.
type OrderScheduled struct {
	BaseEvent
	OrderID      uuid.UUID  `json:"orderId"`
	OrderNumber  string     `json:"orderNumber"`
	TechnicianID *uuid.UUID `json:"technicianId,omitempty"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	ClientEmail  string     `json:"clientEmail,omitempty"`
}

func (e OrderScheduled) EventName() string { return "orders.order.scheduled" }

// OrderCancelled is published when an order jumps to the cancelled status.
type OrderCancelled struct {
	BaseEvent
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	ActorID     uuid.UUID `json:"actorId"`
	Reason      string    `json:"reason,omitempty"`
	ClientEmail string    `json:"clientEmail,omitempty"`
}

func (e OrderCancelled) EventName() string { return "orders.order.cancelled" }

// PaymentRecorded is published when a payment stage is confirmed.
type PaymentRecorded struct {
	BaseEvent
	OrderID uuid.UUID `json:"orderId"`
	Stage   string    `json:"stage"`
	Amount  float64   `json:"amount"`
}

func (e PaymentRecorded) EventName() string { return "orders.payment.recorded" }

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingConflictDetected is published when a booking validation finds at
// least one blocking conflict. Advisory warnings do not publish.
type BookingConflictDetected struct {
	BaseEvent
	TechnicianID uuid.UUID   `json:"technicianId"`
	StartTime    time.Time   `json:"startTime"`
	EndTime      time.Time   `json:"endTime"`
	OrderIDs     []uuid.UUID `json:"orderIds"`
	Conflicts    []string    `json:"conflicts"`
}

func (e BookingConflictDetected) EventName() string { return "booking.conflict.detected" }

// =============================================================================
// Calendar Domain Events
// =============================================================================

// CalendarDriftRepaired is published when the reconciler fixes a divergence
// between an order and its calendar projection.
type CalendarDriftRepaired struct {
	BaseEvent
	OrderID uuid.UUID `json:"orderId"`
	Class   string    `json:"class"`
	Action  string    `json:"action"`
}

func (e CalendarDriftRepaired) EventName() string { return "calendar.drift.repaired" }
