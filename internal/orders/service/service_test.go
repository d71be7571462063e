package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/orders/transport"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/apperr"
	platformevents "repairdesk_backend/platform/events"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu          sync.Mutex
	orders      map[uuid.UUID]*repository.Order
	transitions []repository.Transition
	payments    map[uuid.UUID][]repository.PaymentStage
	seq         int64

	statusUpdateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[uuid.UUID]*repository.Order),
		payments: make(map[uuid.UUID][]repository.PaymentStage),
	}
}

func (f *fakeStore) NextOrderNumber(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("ORD-2026-%05d", f.seq), nil
}

func (f *fakeStore) Create(_ context.Context, o *repository.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *o
	f.orders[o.ID] = &clone
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	clone := *o
	return &clone, nil
}

func (f *fakeStore) UpdateStatusIf(_ context.Context, id uuid.UUID, expectedFrom, to workflow.Status, location workflow.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusUpdateErr != nil {
		return f.statusUpdateErr
	}
	o, ok := f.orders[id]
	if !ok || o.Status != expectedFrom {
		return apperr.Conflict("order status changed concurrently")
	}
	o.Status = to
	o.Location = location
	return nil
}

func (f *fakeStore) UpdateSchedule(_ context.Context, id uuid.UUID, technicianID uuid.UUID, start, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	o.TechnicianID = &technicianID
	o.ScheduledStart = &start
	o.ScheduledEnd = &end
	return nil
}

func (f *fakeStore) UpdateCosts(_ context.Context, id uuid.UUID, initialCost, finalCost *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	if initialCost != nil {
		o.InitialCost = *initialCost
	}
	if finalCost != nil {
		o.FinalCost = *finalCost
	}
	return nil
}

func (f *fakeStore) List(_ context.Context, _ repository.ListParams) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (f *fakeStore) RecordTransition(_ context.Context, t *repository.Transition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, *t)
	return nil
}

func (f *fakeStore) ListTransitions(_ context.Context, orderID uuid.UUID) ([]repository.Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Transition
	for _, t := range f.transitions {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertPaymentStage(_ context.Context, p *repository.PaymentStage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.payments[p.OrderID]
	for i, row := range existing {
		if row.Stage == p.Stage {
			existing[i] = *p
			return nil
		}
	}
	f.payments[p.OrderID] = append(existing, *p)
	return nil
}

func (f *fakeStore) ListPaymentStages(_ context.Context, orderID uuid.UUID) ([]repository.PaymentStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[orderID], nil
}

func (f *fakeStore) currentStatus(id uuid.UUID) workflow.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id].Status
}

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

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type recordingProjector struct {
	mu        sync.Mutex
	snapshots []ProjectionSnapshot
	err       error
}

func (p *recordingProjector) ProjectOrder(_ context.Context, snapshot ProjectionSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snapshot)
	return p.err
}

func newTestService() (*Service, *fakeStore, *recordingBus, *recordingProjector) {
	store := newFakeStore()
	bus := &recordingBus{}
	projector := &recordingProjector{}
	svc := New(store, projector, bus, logger.New("test"))
	return svc, store, bus, projector
}

func seedOrder(t *testing.T, store *fakeStore, at workflow.AttendanceType, status workflow.Status) *repository.Order {
	t.Helper()
	loc := workflow.LocationClient
	if l, ok := workflow.LocationFor(status); ok {
		loc = l
	}
	order := &repository.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-2026-00042",
		AttendanceType: at,
		Status:         status,
		Location:       loc,
		ClientName:     "Maria Souza",
		ClientPhone:    "+5511988887777",
		InitialCost:    200,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := store.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestCreateSelectsFlowAndStartsPending(t *testing.T) {
	svc, store, bus, _ := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		AttendanceType:     workflow.AttendancePickupDiagnosis,
		ClientName:         "Maria Souza",
		ClientPhone:        "+5511988887777",
		AddressStreet:      "Rua das Flores 10",
		AddressCity:        "Sao Paulo",
		EquipmentType:      "washing machine",
		ProblemDescription: "drum does not spin",
		InitialCost:        150,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if resp.Status != workflow.StatusPending {
		t.Errorf("new order status = %s, want pending", resp.Status)
	}
	if resp.Location != workflow.LocationClient {
		t.Errorf("new order location = %s, want client", resp.Location)
	}
	if resp.OrderNumber == "" {
		t.Error("order number not assigned")
	}
	if got := store.currentStatus(resp.ID); got != workflow.StatusPending {
		t.Errorf("stored status = %s, want pending", got)
	}
	if names := bus.names(); len(names) != 1 || names[0] != "orders.order.created" {
		t.Errorf("published events = %v", names)
	}
}

func TestTransitionRejectsIllegalMoveWithoutMutation(t *testing.T) {
	svc, store, bus, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendanceInHome, workflow.StatusScheduled)

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus: workflow.StatusInProgress,
		ActorID:  uuid.New(),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if got := store.currentStatus(order.ID); got != workflow.StatusScheduled {
		t.Errorf("order mutated on illegal transition: %s", got)
	}
	if len(store.transitions) != 0 {
		t.Error("audit entry written for rejected transition")
	}
	if len(bus.names()) != 0 {
		t.Errorf("events published for rejected transition: %v", bus.names())
	}
}

func TestTransitionRejectsIncompleteEvidenceWithoutMutation(t *testing.T) {
	svc, store, _, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupDiagnosis, workflow.StatusDiagnosisCompleted)

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus: workflow.StatusQuoteSent,
		ActorID:  uuid.New(),
		Text:     "too short",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if got := store.currentStatus(order.ID); got != workflow.StatusDiagnosisCompleted {
		t.Errorf("order mutated on incomplete evidence: %s", got)
	}
}

func TestTransitionSkipCommitsWithAudit(t *testing.T) {
	svc, store, bus, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusInRepair)
	actor := uuid.New()

	resp, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus:   workflow.StatusReadyForDelivery,
		ActorID:    actor,
		Skip:       true,
		SkipReason: "camera broken, photos to follow",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if resp.Status != workflow.StatusReadyForDelivery {
		t.Errorf("status = %s, want ready_for_delivery", resp.Status)
	}
	if len(store.transitions) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(store.transitions))
	}
	entry := store.transitions[0]
	if !entry.Skipped || entry.SkipReason == "" || entry.ActorID != actor {
		t.Errorf("audit entry = %+v, want skipped with reason and actor", entry)
	}

	names := bus.names()
	foundSkip := false
	for _, n := range names {
		if n == "orders.requirement.skipped" {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Errorf("requirement.skipped event not published, got %v", names)
	}
}

func TestTransitionSkipRejectedWhenNotSkippable(t *testing.T) {
	svc, store, _, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusOnTheWayToDeliver)
	now := time.Now()
	store.payments[order.ID] = []repository.PaymentStage{
		{Stage: workflow.StageDelivery, Amount: 100, Confirmed: true, ConfirmedAt: &now},
	}

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus: workflow.StatusDelivered,
		ActorID:  uuid.New(),
		Skip:     true,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := store.currentStatus(order.ID); got != workflow.StatusOnTheWayToDeliver {
		t.Errorf("order mutated on rejected skip: %s", got)
	}
}

func TestTransitionSkipRejectedWithoutReason(t *testing.T) {
	svc, store, _, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusInRepair)

	for _, reason := range []string{"", "   "} {
		_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
			ToStatus:   workflow.StatusReadyForDelivery,
			ActorID:    uuid.New(),
			Skip:       true,
			SkipReason: reason,
		})
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for reason %q, got %v", reason, err)
		}
	}

	if got := store.currentStatus(order.ID); got != workflow.StatusInRepair {
		t.Errorf("order mutated on reasonless skip: %s", got)
	}
	if len(store.transitions) != 0 {
		t.Errorf("expected no audit entries, got %d", len(store.transitions))
	}
}

func TestTransitionBlockedByUnpaidStage(t *testing.T) {
	svc, store, _, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusOnTheWay)

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus:      workflow.StatusCollected,
		ActorID:       uuid.New(),
		PhotoReceipts: []string{"receipt-1"},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unpaid stage, got %v", err)
	}

	// Confirm the collection payment, then the same transition commits.
	if err := svc.RecordPayment(context.Background(), order.ID, transport.RecordPaymentRequest{
		Stage:  workflow.StageCollection,
		Amount: 100,
		Method: "pix",
	}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	resp, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus:      workflow.StatusCollected,
		ActorID:       uuid.New(),
		PhotoReceipts: []string{"receipt-1"},
	})
	if err != nil {
		t.Fatalf("Transition after payment: %v", err)
	}
	if resp.Status != workflow.StatusCollected {
		t.Errorf("status = %s, want collected", resp.Status)
	}
	if resp.Location != workflow.LocationTransit {
		t.Errorf("location = %s, want transit", resp.Location)
	}
}

func TestTransitionSurfacesConcurrentConflict(t *testing.T) {
	svc, store, bus, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendanceInHome, workflow.StatusOnTheWay)
	store.statusUpdateErr = apperr.Conflict("order status changed concurrently")

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus:      workflow.StatusInProgress,
		ActorID:       uuid.New(),
		PhotoReceipts: []string{"r1"},
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(store.transitions) != 0 {
		t.Error("audit entry written for conflicted update")
	}
	if len(bus.names()) != 0 {
		t.Errorf("events published for conflicted update: %v", bus.names())
	}
}

func TestTransitionToCancelledPublishesCancellation(t *testing.T) {
	svc, store, bus, projector := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupDiagnosis, workflow.StatusQuoteSent)

	resp, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus:     workflow.StatusCancelled,
		ActorID:      uuid.New(),
		CancelReason: "client bought a new appliance",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if resp.Status != workflow.StatusCancelled {
		t.Errorf("status = %s, want cancelled", resp.Status)
	}

	names := bus.names()
	foundCancel := false
	for _, n := range names {
		if n == "orders.order.cancelled" {
			foundCancel = true
		}
	}
	if !foundCancel {
		t.Errorf("order.cancelled event not published, got %v", names)
	}
	if len(projector.snapshots) != 1 {
		t.Errorf("calendar projection not invoked, got %d snapshots", len(projector.snapshots))
	}
}

func TestQuoteRejectionOnlyOnDiagnosisFlow(t *testing.T) {
	svc, store, _, _ := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusInRepair)

	_, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus: workflow.StatusQuoteRejected,
		ActorID:  uuid.New(),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScheduleAdvancesPendingOrder(t *testing.T) {
	svc, store, bus, projector := newTestService()
	order := seedOrder(t, store, workflow.AttendancePickupRepair, workflow.StatusPending)

	start := time.Now().Add(24 * time.Hour)
	resp, err := svc.Schedule(context.Background(), order.ID, transport.ScheduleRequest{
		TechnicianID: uuid.New(),
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		ActorID:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if resp.Status != workflow.StatusScheduledCollection {
		t.Errorf("status = %s, want scheduled_collection", resp.Status)
	}
	if resp.ScheduledStart == nil || resp.TechnicianID == nil {
		t.Error("schedule slot not assigned")
	}

	names := bus.names()
	if len(names) != 1 || names[0] != "orders.order.scheduled" {
		t.Errorf("published events = %v", names)
	}
	if len(projector.snapshots) != 1 {
		t.Errorf("calendar projection not invoked")
	}
}

func TestProjectionFailureDoesNotFailTransition(t *testing.T) {
	svc, store, _, projector := newTestService()
	projector.err = fmt.Errorf("calendar store down")
	order := seedOrder(t, store, workflow.AttendanceInHome, workflow.StatusScheduled)

	resp, err := svc.Transition(context.Background(), order.ID, transport.TransitionRequest{
		ToStatus: workflow.StatusOnTheWay,
		ActorID:  uuid.New(),
	})
	if err != nil {
		t.Fatalf("Transition must not fail on projection error: %v", err)
	}
	if resp.Status != workflow.StatusOnTheWay {
		t.Errorf("status = %s, want on_the_way", resp.Status)
	}
}

// Compile-time check that the real repository satisfies the service Store.
var _ Store = (*repository.Repository)(nil)

// Compile-time check for the recording bus against the events.Bus interface.
var _ events.Bus = (*recordingBus)(nil)
