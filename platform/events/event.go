// Package events provides the in-process event bus the order workflow
// publishes onto: transitions, scheduling, payments, booking conflicts
// and calendar repairs all flow through here so the notification side
// stays decoupled from the operations that trigger it.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event (see internal/events for
// the concrete order lifecycle events).
type Event interface {
	// EventName returns a unique identifier for the event type,
	// e.g. "orders.order.transitioned".
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type. The notification module
// is the main implementor, fanning one Handle method out by type switch.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the publish/subscribe surface modules depend on.
type Bus interface {
	// Publish sends an event to all handlers registered for its name.
	// Handlers run asynchronously; a failing handler never reaches the
	// publisher, which is why transition results cannot depend on it.
	Publish(ctx context.Context, event Event)

	// PublishSync sends an event and waits for all handlers to complete.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matching the
	// value returned by Event.EventName().
	Subscribe(eventName string, handler Handler)
}
