package service

import (
	"context"
	"testing"
	"time"

	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/internal/workshop/transport"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeReader struct {
	orders []BenchOrder
}

func (f *fakeReader) ListAtWorkshop(_ context.Context) ([]BenchOrder, error) {
	return f.orders, nil
}

type testConfig struct{}

func (testConfig) GetUrgentDwellThreshold() time.Duration    { return 72 * time.Hour }
func (testConfig) GetDiagnosisDwellThreshold() time.Duration { return 24 * time.Hour }
func (testConfig) GetApprovalDwellThreshold() time.Duration  { return 48 * time.Hour }
func (testConfig) GetSLAWarningFraction() float64            { return 0.2 }

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestService(orders ...BenchOrder) *Service {
	svc := New(&fakeReader{orders: orders}, testConfig{}, logger.New("test"))
	svc.now = func() time.Time { return testNow }
	return svc
}

func benchOrder(at workflow.AttendanceType, status workflow.Status, age time.Duration) BenchOrder {
	return BenchOrder{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD-2026-00001",
		Status:         status,
		AttendanceType: at,
		ClientName:     "Ana Costa",
		EquipmentType:  "microwave",
		CreatedAt:      testNow.Add(-age),
	}
}

func itemFor(t *testing.T, svc *Service, id uuid.UUID) transport.QueueItemResponse {
	t.Helper()
	queue, err := svc.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	for _, item := range queue.Items {
		if item.OrderID == id {
			return item
		}
	}
	t.Fatalf("order %s not in queue", id)
	return transport.QueueItemResponse{}
}

func TestDiagnosisOrderPastThresholdIsUrgentAndOverdue(t *testing.T) {
	o := benchOrder(workflow.AttendancePickupDiagnosis, workflow.StatusAtWorkshop, 30*time.Hour)
	svc := newTestService(o)

	item := itemFor(t, svc, o.OrderID)
	if item.Category != transport.CategoryUrgent {
		t.Errorf("category = %s, want urgent (24h diagnosis threshold exceeded)", item.Category)
	}
	if item.EstimatedHours >= 30 {
		t.Fatalf("estimate = %.0f, expected under the 30h dwell", item.EstimatedHours)
	}
	if item.SLAStatus != transport.SLAOverdue {
		t.Errorf("slaStatus = %s, want overdue", item.SLAStatus)
	}
	if item.CanReorder {
		t.Error("urgent items must be pinned")
	}
}

func TestRepairOrderUnderThresholdKeepsBaseCategory(t *testing.T) {
	o := benchOrder(workflow.AttendancePickupRepair, workflow.StatusAtWorkshop, 30*time.Hour)
	svc := newTestService(o)

	item := itemFor(t, svc, o.OrderID)
	if item.Category != transport.CategoryRepairApproved {
		t.Errorf("category = %s, want repair_approved (no 24h rule for repair orders)", item.Category)
	}
}

func TestAwaitingApprovalUrgentAfter48h(t *testing.T) {
	fresh := benchOrder(workflow.AttendancePickupDiagnosis, workflow.StatusQuoteSent, 10*time.Hour)
	stale := benchOrder(workflow.AttendancePickupDiagnosis, workflow.StatusQuoteSent, 50*time.Hour)
	svc := newTestService(fresh, stale)

	if got := itemFor(t, svc, fresh.OrderID).Category; got != transport.CategoryAwaitingApproval {
		t.Errorf("fresh quote category = %s, want awaiting_approval", got)
	}
	if got := itemFor(t, svc, stale.OrderID).Category; got != transport.CategoryUrgent {
		t.Errorf("stale quote category = %s, want urgent", got)
	}
}

func TestSLAWarningNearDeadline(t *testing.T) {
	// Estimate for (pickup_repair, in_repair) is 72h; 20% window opens at
	// 57.6h of dwell.
	o := benchOrder(workflow.AttendancePickupRepair, workflow.StatusInRepair, 60*time.Hour)
	svc := newTestService(o)

	item := itemFor(t, svc, o.OrderID)
	if item.SLAStatus != transport.SLAWarning {
		t.Errorf("slaStatus = %s, want warning", item.SLAStatus)
	}
	if item.CanReorder {
		t.Error("in-repair items must be pinned")
	}
}

func TestQueueOrdering(t *testing.T) {
	urgent := benchOrder(workflow.AttendancePickupDiagnosis, workflow.StatusAtWorkshop, 30*time.Hour)
	overdue := benchOrder(workflow.AttendancePickupRepair, workflow.StatusReadyForDelivery, 26*time.Hour)
	olderBench := benchOrder(workflow.AttendancePickupRepair, workflow.StatusAtWorkshop, 20*time.Hour)
	newerBench := benchOrder(workflow.AttendancePickupRepair, workflow.StatusAtWorkshop, 5*time.Hour)
	quoteSent := benchOrder(workflow.AttendancePickupDiagnosis, workflow.StatusQuoteSent, 10*time.Hour)

	svc := newTestService(quoteSent, newerBench, overdue, olderBench, urgent)

	queue, err := svc.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}

	want := []uuid.UUID{urgent.OrderID, overdue.OrderID, olderBench.OrderID, newerBench.OrderID, quoteSent.OrderID}
	if len(queue.Items) != len(want) {
		t.Fatalf("queue length = %d, want %d", len(queue.Items), len(want))
	}
	for i, id := range want {
		if queue.Items[i].OrderID != id {
			t.Errorf("position %d = %s, want %s", i+1, queue.Items[i].OrderID, id)
		}
		if queue.Items[i].Position != i+1 {
			t.Errorf("position field = %d, want %d", queue.Items[i].Position, i+1)
		}
	}
}

func TestTerminalOrdersExcluded(t *testing.T) {
	done := benchOrder(workflow.AttendancePickupRepair, workflow.StatusCompleted, 10*time.Hour)
	svc := newTestService(done)

	queue, err := svc.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(queue.Items) != 0 {
		t.Errorf("terminal order included in queue: %v", queue.Items)
	}
}
