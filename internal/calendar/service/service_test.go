package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"repairdesk_backend/internal/calendar/repository"
	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/apperr"
	platformevents "repairdesk_backend/platform/events"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeEventStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*repository.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*repository.Event)}
}

func (f *fakeEventStore) UpsertByOrder(_ context.Context, e *repository.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.events[e.LinkedOrderID]; ok {
		// Keep the original identity, replace the projected fields.
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
	}
	clone := *e
	f.events[e.LinkedOrderID] = &clone
	return nil
}

func (f *fakeEventStore) GetByOrder(_ context.Context, orderID uuid.UUID) (*repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[orderID]
	if !ok {
		return nil, apperr.NotFound("calendar event not found")
	}
	clone := *e
	return &clone, nil
}

func (f *fakeEventStore) DeleteByOrder(_ context.Context, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, orderID)
	return nil
}

func (f *fakeEventStore) ListRange(_ context.Context, from, to time.Time, _ *uuid.UUID) ([]repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Event
	for _, e := range f.events {
		if e.StartTime.Before(to) && e.EndTime.After(from) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListAll(_ context.Context) ([]repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Event
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

type fakeOrderSource struct {
	orders []OrderSnapshot
}

func (f *fakeOrderSource) ListScheduled(_ context.Context) ([]OrderSnapshot, error) {
	return f.orders, nil
}

func (f *fakeOrderSource) GetOrder(_ context.Context, orderID uuid.UUID) (*OrderSnapshot, error) {
	for i := range f.orders {
		if f.orders[i].OrderID == orderID {
			return &f.orders[i], nil
		}
	}
	return nil, apperr.NotFound("order not found")
}

type testConfig struct{}

func (testConfig) GetDefaultEventDuration() time.Duration { return 2 * time.Hour }
func (testConfig) GetReconcileTolerance() time.Duration   { return 2 * time.Second }

type recordingBus struct {
	mu     sync.Mutex
	events []platformevents.Event
}

func (b *recordingBus) Publish(_ context.Context, event platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event platformevents.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, platformevents.Handler) {}

func newTestService(source *fakeOrderSource) (*Service, *fakeEventStore, *recordingBus) {
	store := newFakeEventStore()
	bus := &recordingBus{}
	svc := New(store, source, testConfig{}, bus, logger.New("test"))
	return svc, store, bus
}

func snapshot(status workflow.Status, start time.Time) OrderSnapshot {
	end := start.Add(90 * time.Minute)
	tech := uuid.New()
	return OrderSnapshot{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD-2026-00007",
		Status:         status,
		ClientName:     "Joao Lima",
		AddressStreet:  "Av. Paulista 1000",
		AddressCity:    "Sao Paulo",
		TechnicianID:   &tech,
		ScheduledStart: &start,
		ScheduledEnd:   &end,
	}
}

func TestClassForStatus(t *testing.T) {
	tests := []struct {
		status workflow.Status
		want   StatusClass
		known  bool
	}{
		{workflow.StatusScheduled, ClassScheduled, true},
		{workflow.StatusScheduledCollection, ClassScheduled, true},
		{workflow.StatusOnTheWay, ClassOnTheWay, true},
		{workflow.StatusCollected, ClassInProgress, true},
		{workflow.StatusCollectedDiagnosis, ClassInProgress, true},
		{workflow.StatusPaymentPending, ClassReadyDelivery, true},
		{workflow.StatusQuoteSent, ClassAwaitingApproval, true},
		{workflow.StatusQuoteApproved, ClassInRepair, true},
		{workflow.StatusNeedsWorkshop, ClassInRepair, true},
		{workflow.StatusReadyForDelivery, ClassReadyDelivery, true},
		{workflow.StatusDeliveryScheduled, ClassReadyDelivery, true},
		{workflow.StatusCollectedForDelivery, ClassReadyDelivery, true},
		{workflow.StatusOnTheWayToDeliver, ClassReadyDelivery, true},
		{workflow.StatusCancelled, ClassCancelled, true},
		{workflow.Status("made_up"), ClassScheduled, false},
	}

	for _, tt := range tests {
		got, known := ClassForStatus(tt.status)
		if got != tt.want || known != tt.known {
			t.Errorf("ClassForStatus(%s) = (%s, %v), want (%s, %v)", tt.status, got, known, tt.want, tt.known)
		}
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService(&fakeOrderSource{})
	snap := snapshot(workflow.StatusScheduledCollection, time.Now().Add(24*time.Hour))

	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	if len(store.events) != 1 {
		t.Fatalf("expected exactly one event per order, got %d", len(store.events))
	}
	e := store.events[snap.OrderID]
	if e.StatusClass != string(ClassScheduled) {
		t.Errorf("status class = %s, want scheduled", e.StatusClass)
	}
	if !e.StartTime.Equal(*snap.ScheduledStart) || !e.EndTime.Equal(*snap.ScheduledEnd) {
		t.Error("event times do not match the order slot")
	}
}

func TestUpsertWithoutSlotRemovesEvent(t *testing.T) {
	svc, store, _ := newTestService(&fakeOrderSource{})
	snap := snapshot(workflow.StatusScheduled, time.Now())

	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	snap.ScheduledStart = nil
	snap.ScheduledEnd = nil
	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("Upsert without slot: %v", err)
	}

	if len(store.events) != 0 {
		t.Error("unscheduled order still has a calendar event")
	}
}

func TestUpsertRemovesEventForClosedOrder(t *testing.T) {
	svc, store, _ := newTestService(&fakeOrderSource{})
	snap := snapshot(workflow.StatusScheduled, time.Now().Add(24*time.Hour))

	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// The order keeps its slot; only the status closes.
	snap.Status = workflow.StatusCancelled
	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("Upsert after cancel: %v", err)
	}

	if len(store.events) != 0 {
		t.Error("cancelled order still has a calendar event")
	}
}

func TestUpsertDefaultsEventDuration(t *testing.T) {
	svc, store, _ := newTestService(&fakeOrderSource{})
	start := time.Now().Add(time.Hour)
	snap := snapshot(workflow.StatusScheduled, start)
	snap.ScheduledEnd = nil

	if err := svc.Upsert(context.Background(), snap); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	e := store.events[snap.OrderID]
	if got := e.EndTime.Sub(e.StartTime); got != 2*time.Hour {
		t.Errorf("default duration = %v, want 2h", got)
	}
}

func TestSyncOrderProjectsSingleOrder(t *testing.T) {
	snap := snapshot(workflow.StatusScheduled, time.Now().Add(2*time.Hour))
	source := &fakeOrderSource{orders: []OrderSnapshot{snap}}
	svc, store, _ := newTestService(source)

	if err := svc.SyncOrder(context.Background(), snap.OrderID); err != nil {
		t.Fatalf("SyncOrder: %v", err)
	}
	if _, ok := store.events[snap.OrderID]; !ok {
		t.Fatal("expected a projected event for the synced order")
	}

	if err := svc.SyncOrder(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestReconcileReportsAllDivergenceClasses(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	missing := snapshot(workflow.StatusScheduled, now.Add(24*time.Hour))
	drifted := snapshot(workflow.StatusInRepair, now.Add(48*time.Hour))

	source := &fakeOrderSource{orders: []OrderSnapshot{missing, drifted}}
	svc, store, _ := newTestService(source)

	// The drifted order's event carries a stale start time and class.
	store.events[drifted.OrderID] = &repository.Event{
		ID:            uuid.New(),
		LinkedOrderID: drifted.OrderID,
		Title:         "stale",
		StatusClass:   string(ClassScheduled),
		TechnicianID:  drifted.TechnicianID,
		StartTime:     drifted.ScheduledStart.Add(30 * time.Minute),
		EndTime:       drifted.ScheduledEnd.Add(30 * time.Minute),
	}

	// An event pointing at an order no longer scheduled.
	orphanID := uuid.New()
	store.events[orphanID] = &repository.Event{
		ID:            uuid.New(),
		LinkedOrderID: orphanID,
		StatusClass:   string(ClassScheduled),
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
	}

	report, err := svc.Reconcile(context.Background(), false)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if !report.DryRun {
		t.Error("read-only run not marked as dry run")
	}
	classes := make(map[string]int)
	for _, d := range report.Divergences {
		classes[d.Class]++
	}
	if classes[DivergenceOrphanOrder] != 1 || classes[DivergenceOrphanEvent] != 1 || classes[DivergenceFieldDrift] != 1 {
		t.Errorf("divergence classes = %v, want one of each", classes)
	}

	// Read-only: nothing changed.
	if _, ok := store.events[missing.OrderID]; ok {
		t.Error("dry run created an event")
	}
	if _, ok := store.events[orphanID]; !ok {
		t.Error("dry run deleted an event")
	}
}

func TestReconcileFixRepairsTowardOrders(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	missing := snapshot(workflow.StatusScheduled, now.Add(24*time.Hour))
	source := &fakeOrderSource{orders: []OrderSnapshot{missing}}
	svc, store, bus := newTestService(source)

	orphanID := uuid.New()
	store.events[orphanID] = &repository.Event{
		ID:            uuid.New(),
		LinkedOrderID: orphanID,
		StatusClass:   string(ClassScheduled),
		StartTime:     now,
		EndTime:       now.Add(time.Hour),
	}

	report, err := svc.Reconcile(context.Background(), true)
	if err != nil {
		t.Fatalf("Reconcile fix: %v", err)
	}

	if report.Repaired != 2 {
		t.Errorf("repaired = %d, want 2", report.Repaired)
	}
	if _, ok := store.events[missing.OrderID]; !ok {
		t.Error("orphan order not reprojected")
	}
	if _, ok := store.events[orphanID]; ok {
		t.Error("orphan event not deleted")
	}

	bus.mu.Lock()
	published := len(bus.events)
	bus.mu.Unlock()
	if published != 2 {
		t.Errorf("expected 2 drift-repaired events, got %d", published)
	}

	// A second run finds nothing left to fix.
	second, err := svc.Reconcile(context.Background(), true)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if len(second.Divergences) != 0 {
		t.Errorf("divergences after repair = %v", second.Divergences)
	}
}

// Compile-time checks against the real implementations.
var (
	_ EventStore = (*repository.Repository)(nil)
	_ events.Bus = (*recordingBus)(nil)
)
