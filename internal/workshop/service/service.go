// Package service implements the workshop bench queue. The queue is a
// read-side ranking recomputed on every query; it persists no state of its
// own.
package service

import (
	"context"
	"sort"
	"time"

	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/internal/workshop/transport"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// BenchOrder is one order physically at the workshop.
type BenchOrder struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Status         workflow.Status
	AttendanceType workflow.AttendanceType
	ClientName     string
	EquipmentType  string
	CreatedAt      time.Time
}

// OrderReader reads the current workshop occupants from the orders store.
type OrderReader interface {
	ListAtWorkshop(ctx context.Context) ([]BenchOrder, error)
}

// Config is the narrow configuration surface of the queue ranker.
type Config interface {
	GetUrgentDwellThreshold() time.Duration
	GetDiagnosisDwellThreshold() time.Duration
	GetApprovalDwellThreshold() time.Duration
	GetSLAWarningFraction() float64
}

// Service provides the workshop queue ranking
type Service struct {
	reader OrderReader
	cfg    Config
	log    *logger.Logger
	now    func() time.Time
}

// New creates a new workshop service
func New(reader OrderReader, cfg Config, log *logger.Logger) *Service {
	return &Service{reader: reader, cfg: cfg, log: log, now: time.Now}
}

// estimatedHours is the bench-time estimate per (attendanceType, status).
var estimatedHours = map[workflow.AttendanceType]map[workflow.Status]float64{
	workflow.AttendancePickupRepair: {
		workflow.StatusAtWorkshop:        48,
		workflow.StatusNeedsWorkshop:     48,
		workflow.StatusInRepair:          72,
		workflow.StatusReadyForDelivery:  24,
		workflow.StatusDeliveryScheduled: 24,
	},
	workflow.AttendancePickupDiagnosis: {
		workflow.StatusAtWorkshop:         24,
		workflow.StatusReceivedAtWorkshop: 24,
		workflow.StatusNeedsWorkshop:      24,
		workflow.StatusDiagnosisCompleted: 12,
		workflow.StatusQuoteSent:          48,
		workflow.StatusQuoteApproved:      72,
		workflow.StatusInRepair:           72,
		workflow.StatusReadyForDelivery:   24,
		workflow.StatusDeliveryScheduled:  24,
	},
}

const defaultEstimatedHours = 48

// statusPriority orders non-urgent, non-overdue items on the bench. Lower
// runs first.
var statusPriority = map[workflow.Status]int{
	workflow.StatusAtWorkshop:         1,
	workflow.StatusReceivedAtWorkshop: 1,
	workflow.StatusNeedsWorkshop:      1,
	workflow.StatusDiagnosisCompleted: 2,
	workflow.StatusQuoteSent:          3,
	workflow.StatusQuoteApproved:      4,
	workflow.StatusInRepair:           5,
	workflow.StatusReadyForDelivery:   6,
	workflow.StatusDeliveryScheduled:  7,
}

// Queue computes the ranked workshop queue at the current instant.
func (s *Service) Queue(ctx context.Context) (*transport.QueueResponse, error) {
	orders, err := s.reader.ListAtWorkshop(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]transport.QueueItemResponse, 0, len(orders))
	for _, o := range orders {
		if workflow.IsTerminal(o.Status) {
			continue
		}
		items = append(items, s.rank(o, now))
	}

	// Stable so equally ranked items keep their store order (oldest first).
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
	for i := range items {
		items[i].Position = i + 1
	}

	return &transport.QueueResponse{Items: items, GeneratedAt: now}, nil
}

func (s *Service) rank(o BenchOrder, now time.Time) transport.QueueItemResponse {
	dwell := now.Sub(o.CreatedAt)
	dwellHours := dwell.Hours()

	category := baseCategory(o.AttendanceType, o.Status)
	urgent := s.isUrgent(category, o.AttendanceType, dwell)
	if urgent {
		category = transport.CategoryUrgent
	}

	estimate := lookupEstimate(o.AttendanceType, o.Status)
	deadline := o.CreatedAt.Add(time.Duration(estimate * float64(time.Hour)))
	slaStatus := s.slaStatus(now, deadline, estimate)

	return transport.QueueItemResponse{
		OrderID:        o.OrderID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		AttendanceType: o.AttendanceType,
		ClientName:     o.ClientName,
		EquipmentType:  o.EquipmentType,
		DwellHours:     dwellHours,
		Category:       category,
		EstimatedHours: estimate,
		SLADeadline:    deadline,
		SLAStatus:      slaStatus,
		CanReorder:     canReorder(urgent, o.Status),
	}
}

func (s *Service) isUrgent(category string, at workflow.AttendanceType, dwell time.Duration) bool {
	if dwell > s.cfg.GetUrgentDwellThreshold() {
		return true
	}
	if category == transport.CategoryDiagnosisPending && at == workflow.AttendancePickupDiagnosis &&
		dwell > s.cfg.GetDiagnosisDwellThreshold() {
		return true
	}
	if category == transport.CategoryAwaitingApproval && dwell > s.cfg.GetApprovalDwellThreshold() {
		return true
	}
	return false
}

func (s *Service) slaStatus(now, deadline time.Time, estimate float64) string {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return transport.SLAOverdue
	}
	warningWindow := time.Duration(estimate * s.cfg.GetSLAWarningFraction() * float64(time.Hour))
	if remaining < warningWindow {
		return transport.SLAWarning
	}
	return transport.SLAOnTime
}

func baseCategory(at workflow.AttendanceType, status workflow.Status) string {
	switch status {
	case workflow.StatusDiagnosisCompleted, workflow.StatusQuoteSent:
		return transport.CategoryAwaitingApproval
	case workflow.StatusReadyForDelivery, workflow.StatusDeliveryScheduled:
		return transport.CategoryReadyDelivery
	case workflow.StatusQuoteApproved, workflow.StatusInRepair:
		return transport.CategoryRepairApproved
	}
	// Workshop arrival statuses: diagnosis orders wait for a diagnosis,
	// repair orders are already approved for work.
	if at == workflow.AttendancePickupDiagnosis {
		return transport.CategoryDiagnosisPending
	}
	return transport.CategoryRepairApproved
}

func lookupEstimate(at workflow.AttendanceType, status workflow.Status) float64 {
	if table, ok := estimatedHours[at]; ok {
		if estimate, ok := table[status]; ok {
			return estimate
		}
	}
	return defaultEstimatedHours
}

// canReorder reports whether an operator may manually reprioritize the item.
// Urgent items, actively worked items, and finished items are pinned.
func canReorder(urgent bool, status workflow.Status) bool {
	if urgent {
		return false
	}
	switch status {
	case workflow.StatusInRepair, workflow.StatusReadyForDelivery:
		return false
	}
	return true
}

func less(a, b transport.QueueItemResponse) bool {
	aUrgent := a.Category == transport.CategoryUrgent
	bUrgent := b.Category == transport.CategoryUrgent
	if aUrgent != bUrgent {
		return aUrgent
	}

	aOverdue := a.SLAStatus == transport.SLAOverdue
	bOverdue := b.SLAStatus == transport.SLAOverdue
	if aOverdue != bOverdue {
		return aOverdue
	}

	aPrio := priorityOf(a.Status)
	bPrio := priorityOf(b.Status)
	if aPrio != bPrio {
		return aPrio < bPrio
	}

	return a.DwellHours > b.DwellHours
}

func priorityOf(status workflow.Status) int {
	if p, ok := statusPriority[status]; ok {
		return p
	}
	return 99
}
