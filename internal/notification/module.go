// Package notification subscribes to domain events and fans them out to
// the client email channel and the staff in-app feed. Domain modules
// publish events and never talk to SMTP or notification tables directly.
package notification

import (
	"context"
	"fmt"
	"strings"

	"repairdesk_backend/internal/email"
	"repairdesk_backend/internal/events"
	apphttp "repairdesk_backend/internal/http"
	notifhandler "repairdesk_backend/internal/notification/handler"
	"repairdesk_backend/internal/notification/inapp"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fallbackClientName = "customer"

// InAppNotifier persists staff-facing alerts.
type InAppNotifier interface {
	Send(ctx context.Context, p inapp.SendParams) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	pool         *pgxpool.Pool
	sender       email.Sender
	log          *logger.Logger
	inApp        InAppNotifier
	inAppHandler *notifhandler.HTTPHandler
}

// New creates a new notification module.
func New(pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) *Module {
	inAppRepo := inapp.NewRepository(pool)
	inAppSvc := inapp.NewService(inAppRepo, log)

	return &Module{
		pool:         pool,
		sender:       sender,
		log:          log,
		inApp:        inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.inAppHandler == nil {
		return
	}

	notifications := ctx.V1.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.OrderScheduled{}.EventName(), m)
	bus.Subscribe(events.OrderTransitioned{}.EventName(), m)
	bus.Subscribe(events.OrderCancelled{}.EventName(), m)
	bus.Subscribe(events.RequirementSkipped{}.EventName(), m)
	bus.Subscribe(events.PaymentRecorded{}.EventName(), m)
	bus.Subscribe(events.BookingConflictDetected{}.EventName(), m)
	bus.Subscribe(events.CalendarDriftRepaired{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.OrderScheduled:
		return m.handleOrderScheduled(ctx, e)
	case events.OrderTransitioned:
		return m.handleOrderTransitioned(ctx, e)
	case events.OrderCancelled:
		return m.handleOrderCancelled(ctx, e)
	case events.RequirementSkipped:
		return m.handleRequirementSkipped(ctx, e)
	case events.PaymentRecorded:
		return m.handlePaymentRecorded(ctx, e)
	case events.BookingConflictDetected:
		return m.handleBookingConflictDetected(ctx, e)
	case events.CalendarDriftRepaired:
		return m.handleCalendarDriftRepaired(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

// clientEmailStatuses are the transitions worth a client-facing email.
// Internal workshop moves stay internal.
var clientEmailStatuses = map[workflow.Status]bool{
	workflow.StatusOnTheWay:          true,
	workflow.StatusOnTheWayToDeliver: true,
	workflow.StatusReadyForDelivery:  true,
	workflow.StatusDelivered:         true,
	workflow.StatusCompleted:         true,
}

func (m *Module) handleOrderScheduled(ctx context.Context, e events.OrderScheduled) error {
	contact := m.resolveOrderContact(ctx, e.OrderID, e.ClientEmail)
	if contact.Email == "" {
		return nil
	}

	scheduledDate := e.StartTime.Format("02/01/2006 15:04")
	if err := m.sender.SendScheduleConfirmationEmail(ctx, contact.Email, contact.Name, e.OrderNumber, scheduledDate); err != nil {
		m.log.Error("failed to send schedule confirmation email",
			"orderId", e.OrderID,
			"error", err,
		)
		return err
	}
	m.log.Info("schedule confirmation email sent", "orderId", e.OrderID, "orderNumber", e.OrderNumber)
	return nil
}

func (m *Module) handleOrderTransitioned(ctx context.Context, e events.OrderTransitioned) error {
	to := workflow.Status(e.ToStatus)

	if to == workflow.StatusQuoteSent {
		contact := m.resolveOrderContact(ctx, e.OrderID, e.ClientEmail)
		if contact.Email == "" {
			return nil
		}
		if err := m.sender.SendQuoteReadyEmail(ctx, contact.Email, contact.Name, e.OrderNumber); err != nil {
			m.log.Error("failed to send quote ready email", "orderId", e.OrderID, "error", err)
			return err
		}
		m.log.Info("quote ready email sent", "orderId", e.OrderID, "orderNumber", e.OrderNumber)
		return nil
	}

	if !clientEmailStatuses[to] {
		return nil
	}

	contact := m.resolveOrderContact(ctx, e.OrderID, e.ClientEmail)
	if contact.Email == "" {
		return nil
	}

	label := statusLabel(workflow.AttendanceType(e.AttendanceType), to)
	if err := m.sender.SendStatusUpdateEmail(ctx, contact.Email, contact.Name, e.OrderNumber, label); err != nil {
		m.log.Error("failed to send status update email",
			"orderId", e.OrderID,
			"toStatus", e.ToStatus,
			"error", err,
		)
		return err
	}
	m.log.Info("status update email sent", "orderId", e.OrderID, "toStatus", e.ToStatus)
	return nil
}

func (m *Module) handleOrderCancelled(ctx context.Context, e events.OrderCancelled) error {
	orderID := e.OrderID
	if err := m.inApp.Send(ctx, inapp.SendParams{
		Title:        "Order cancelled",
		Content:      fmt.Sprintf("Order %s was cancelled.", e.OrderNumber),
		ResourceID:   &orderID,
		ResourceType: "order",
		Category:     "info",
	}); err != nil {
		m.log.Warn("failed to record cancellation alert", "orderId", e.OrderID, "error", err)
	}

	contact := m.resolveOrderContact(ctx, e.OrderID, e.ClientEmail)
	if contact.Email == "" {
		return nil
	}
	if err := m.sender.SendCancellationEmail(ctx, contact.Email, contact.Name, e.OrderNumber, e.Reason); err != nil {
		m.log.Error("failed to send cancellation email", "orderId", e.OrderID, "error", err)
		return err
	}
	m.log.Info("cancellation email sent", "orderId", e.OrderID, "orderNumber", e.OrderNumber)
	return nil
}

func (m *Module) handleRequirementSkipped(ctx context.Context, e events.RequirementSkipped) error {
	orderID := e.OrderID
	reason := strings.TrimSpace(e.Reason)
	if reason == "" {
		reason = "no reason given"
	}
	return m.inApp.Send(ctx, inapp.SendParams{
		Title:        "Evidence requirement skipped",
		Content:      fmt.Sprintf("Transition %s to %s was committed without evidence: %s", e.FromStatus, e.ToStatus, reason),
		ResourceID:   &orderID,
		ResourceType: "order",
		Category:     "warning",
	})
}

func (m *Module) handlePaymentRecorded(ctx context.Context, e events.PaymentRecorded) error {
	contact := m.resolveOrderContact(ctx, e.OrderID, "")
	if contact.Email == "" {
		return nil
	}

	if err := m.sender.SendPaymentReceiptEmail(ctx, contact.Email, contact.Name, contact.OrderNumber, stageLabel(e.Stage), e.Amount); err != nil {
		m.log.Error("failed to send payment receipt email", "orderId", e.OrderID, "stage", e.Stage, "error", err)
		return err
	}
	m.log.Info("payment receipt email sent", "orderId", e.OrderID, "stage", e.Stage)
	return nil
}

func (m *Module) handleBookingConflictDetected(ctx context.Context, e events.BookingConflictDetected) error {
	technicianID := e.TechnicianID
	return m.inApp.Send(ctx, inapp.SendParams{
		Title: "Booking conflict detected",
		Content: fmt.Sprintf("A blocking booking conflict was detected for slot %s to %s: %s",
			e.StartTime.Format("02/01 15:04"), e.EndTime.Format("15:04"), strings.Join(e.Conflicts, "; ")),
		ResourceID:   &technicianID,
		ResourceType: "technician",
		Category:     "error",
	})
}

func (m *Module) handleCalendarDriftRepaired(ctx context.Context, e events.CalendarDriftRepaired) error {
	orderID := e.OrderID
	return m.inApp.Send(ctx, inapp.SendParams{
		Title:        "Calendar drift repaired",
		Content:      fmt.Sprintf("Reconciler repaired a %s divergence (%s).", e.Class, e.Action),
		ResourceID:   &orderID,
		ResourceType: "order",
		Category:     "warning",
	})
}

// orderContact holds resolved client contact fields.
type orderContact struct {
	Name        string
	Email       string
	OrderNumber string
}

// resolveOrderContact fetches the client name and email for an order.
// The event's email is used as a fallback when the row is gone.
func (m *Module) resolveOrderContact(ctx context.Context, orderID uuid.UUID, eventEmail string) orderContact {
	contact := orderContact{Name: fallbackClientName, Email: strings.TrimSpace(eventEmail)}
	if m.pool == nil || orderID == uuid.Nil {
		return contact
	}

	var name, emailAddr, orderNumber string
	err := m.pool.QueryRow(ctx,
		`SELECT client_name, client_email, order_number FROM orders WHERE id = $1`,
		orderID,
	).Scan(&name, &emailAddr, &orderNumber)
	if err != nil {
		return contact
	}

	if trimmed := strings.TrimSpace(name); trimmed != "" {
		contact.Name = trimmed
	}
	if trimmed := strings.TrimSpace(emailAddr); trimmed != "" {
		contact.Email = trimmed
	}
	contact.OrderNumber = orderNumber
	return contact
}

func statusLabel(at workflow.AttendanceType, status workflow.Status) string {
	if idx := workflow.IndexOf(status, at); idx >= 0 {
		return workflow.Flow(at)[idx].Label
	}
	return string(status)
}

func stageLabel(stage string) string {
	switch workflow.PaymentStage(stage) {
	case workflow.StageCollection:
		return "collection payment"
	case workflow.StageDelivery:
		return "delivery payment"
	case workflow.StageFull:
		return "full payment"
	}
	return stage
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
