package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"repairdesk_backend/internal/booking/transport"
	"repairdesk_backend/internal/workflow"
	platformevents "repairdesk_backend/platform/events"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeReader struct {
	slots []BookedSlot
}

func (f *fakeReader) ListOverlapping(_ context.Context, start, end time.Time) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, s := range f.slots {
		if s.StartTime.Before(end) && s.EndTime.After(start) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeReader) ListByTechnician(_ context.Context, technicianID uuid.UUID, start, end time.Time) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, s := range f.slots {
		if s.TechnicianID != nil && *s.TechnicianID == technicianID &&
			s.StartTime.Before(end) && s.EndTime.After(start) {
			out = append(out, s)
		}
	}
	return out, nil
}

type testConfig struct{ fanOut int }

func (c testConfig) GetMaxBookingFanOut() int { return c.fanOut }

type nopBus struct {
	mu        sync.Mutex
	published int
}

func (b *nopBus) Publish(context.Context, platformevents.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published++
}

func (b *nopBus) PublishSync(ctx context.Context, e platformevents.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *nopBus) Subscribe(string, platformevents.Handler) {}

func newTestService(reader *fakeReader) (*Service, *nopBus) {
	bus := &nopBus{}
	return New(reader, testConfig{fanOut: 5}, bus, logger.New("test")), bus
}

func slotWindow() (time.Time, time.Time) {
	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	return start, start.Add(2 * time.Hour)
}

func baseRequest(groups ...transport.BookingGroup) transport.ValidateBookingRequest {
	start, end := slotWindow()
	return transport.ValidateBookingRequest{
		StartTime:           start,
		EndTime:             end,
		RequestedAttendance: workflow.AttendanceInHome,
		Groups:              groups,
	}
}

func countByType(conflicts []transport.ConflictResponse, typ string) int {
	n := 0
	for _, c := range conflicts {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func TestDistinctTechniciansSameSlotDoNotConflict(t *testing.T) {
	start, end := slotWindow()
	techA := uuid.New()
	reader := &fakeReader{slots: []BookedSlot{
		{OrderID: uuid.New(), TechnicianID: &techA, StartTime: start, EndTime: end},
	}}
	svc, _ := newTestService(reader)

	techB := uuid.New()
	report, err := svc.Validate(context.Background(), baseRequest(transport.BookingGroup{
		TechnicianID:   &techB,
		AttendanceType: workflow.AttendanceInHome,
	}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if report.HasConflicts {
		t.Error("distinct technicians in the same slot must not block")
	}
	if countByType(report.Conflicts, transport.ConflictTime) != 1 {
		t.Errorf("expected one advisory time conflict, got %v", report.Conflicts)
	}
	if countByType(report.Conflicts, transport.ConflictTechnician) != 0 {
		t.Errorf("unexpected technician conflict: %v", report.Conflicts)
	}
}

func TestSameTechnicianSameSlotBlocksWithSingleError(t *testing.T) {
	start, end := slotWindow()
	tech := uuid.New()
	reader := &fakeReader{slots: []BookedSlot{
		{OrderID: uuid.New(), TechnicianID: &tech, StartTime: start, EndTime: end},
	}}
	svc, bus := newTestService(reader)

	report, err := svc.Validate(context.Background(), baseRequest(transport.BookingGroup{
		TechnicianID:   &tech,
		AttendanceType: workflow.AttendanceInHome,
	}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !report.HasConflicts {
		t.Error("double-booked technician must block")
	}
	if got := countByType(report.Conflicts, transport.ConflictTechnician); got != 1 {
		t.Errorf("technician conflicts = %d, want exactly 1", got)
	}
	for _, c := range report.Conflicts {
		if c.Type == transport.ConflictTechnician && c.Severity != transport.SeverityError {
			t.Errorf("technician conflict severity = %s, want error", c.Severity)
		}
	}
	if bus.published != 1 {
		t.Errorf("conflict event published %d times, want 1", bus.published)
	}
}

func TestTechnicianDuplicatedWithinRequestBlocks(t *testing.T) {
	svc, _ := newTestService(&fakeReader{})
	tech := uuid.New()

	report, err := svc.Validate(context.Background(), baseRequest(
		transport.BookingGroup{TechnicianID: &tech, AttendanceType: workflow.AttendanceInHome},
		transport.BookingGroup{TechnicianID: &tech, AttendanceType: workflow.AttendanceInHome},
	))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !report.HasConflicts {
		t.Error("same technician in two groups must block")
	}
	if got := countByType(report.Conflicts, transport.ConflictTechnician); got != 1 {
		t.Errorf("technician conflicts = %d, want exactly 1", got)
	}
}

func TestModifiedBookingIgnoresItsOwnOrder(t *testing.T) {
	start, end := slotWindow()
	tech := uuid.New()
	existing := uuid.New()
	reader := &fakeReader{slots: []BookedSlot{
		{OrderID: existing, TechnicianID: &tech, StartTime: start, EndTime: end},
	}}
	svc, _ := newTestService(reader)

	report, err := svc.Validate(context.Background(), baseRequest(transport.BookingGroup{
		OrderID:        &existing,
		TechnicianID:   &tech,
		AttendanceType: workflow.AttendanceInHome,
	}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if report.HasConflicts {
		t.Errorf("rescheduling an order must not conflict with itself: %v", report.Conflicts)
	}
}

func TestAttendanceMixAndDivergenceAreAdvisory(t *testing.T) {
	svc, _ := newTestService(&fakeReader{})
	techA, techB := uuid.New(), uuid.New()

	report, err := svc.Validate(context.Background(), baseRequest(
		transport.BookingGroup{TechnicianID: &techA, AttendanceType: workflow.AttendanceInHome},
		transport.BookingGroup{TechnicianID: &techB, AttendanceType: workflow.AttendancePickupRepair},
	))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if report.HasConflicts {
		t.Error("attendance mixing must not block")
	}
	if countByType(report.Conflicts, transport.ConflictAttendanceMix) != 1 {
		t.Errorf("expected attendance_mix warning, got %v", report.Conflicts)
	}
	if countByType(report.Conflicts, transport.ConflictAttendanceDiverged) != 1 {
		t.Errorf("expected attendance_diverged info, got %v", report.Conflicts)
	}
}

func TestDuplicateEquipmentAcrossGroupsBlocks(t *testing.T) {
	svc, _ := newTestService(&fakeReader{})
	techA, techB := uuid.New(), uuid.New()

	report, err := svc.Validate(context.Background(), baseRequest(
		transport.BookingGroup{TechnicianID: &techA, AttendanceType: workflow.AttendanceInHome, EquipmentIDs: []string{"eq-1", "eq-2"}},
		transport.BookingGroup{TechnicianID: &techB, AttendanceType: workflow.AttendanceInHome, EquipmentIDs: []string{"eq-2"}},
	))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if !report.HasConflicts {
		t.Error("duplicate equipment must block")
	}
	if countByType(report.Conflicts, transport.ConflictDuplicateEquipment) != 1 {
		t.Errorf("expected one duplicate_equipment error, got %v", report.Conflicts)
	}
}

func TestMissingEquipmentAndFanOutAreWarnings(t *testing.T) {
	svc, _ := newTestService(&fakeReader{})

	groups := make([]transport.BookingGroup, 6)
	for i := range groups {
		tech := uuid.New()
		groups[i] = transport.BookingGroup{TechnicianID: &tech, AttendanceType: workflow.AttendanceInHome}
	}
	req := baseRequest(groups...)
	req.RequestedEquipment = []string{"eq-9"}

	report, err := svc.Validate(context.Background(), req)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if report.HasConflicts {
		t.Error("warnings alone must not block")
	}
	if countByType(report.Conflicts, transport.ConflictMissingEquipment) != 1 {
		t.Errorf("expected missing_equipment warning, got %v", report.Conflicts)
	}
	if countByType(report.Conflicts, transport.ConflictExcessiveFanOut) != 1 {
		t.Errorf("expected excessive_fan_out warning, got %v", report.Conflicts)
	}
}
