// Package service implements booking validation. The checks are
// read-then-decide and advisory by design: only a technician double-booking
// blocks commit, and the store-level uniqueness constraint remains the real
// correctness boundary under races.
package service

import (
	"context"
	"fmt"
	"time"

	"repairdesk_backend/internal/booking/transport"
	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// BookedSlot is an existing order occupying a time slot.
type BookedSlot struct {
	OrderID      uuid.UUID
	TechnicianID *uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
}

// OrderReader reads current slot occupancy from the orders store.
type OrderReader interface {
	ListOverlapping(ctx context.Context, start, end time.Time) ([]BookedSlot, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID, start, end time.Time) ([]BookedSlot, error)
}

// Config is the narrow configuration surface of the booking validator.
type Config interface {
	GetMaxBookingFanOut() int
}

// Service provides booking validation business logic
type Service struct {
	reader OrderReader
	cfg    Config
	bus    events.Bus
	log    *logger.Logger
}

// New creates a new booking service
func New(reader OrderReader, cfg Config, bus events.Bus, log *logger.Logger) *Service {
	return &Service{reader: reader, cfg: cfg, bus: bus, log: log}
}

// Validate runs every conflict check over a proposed booking and aggregates
// the report. The booking itself is not persisted here.
func (s *Service) Validate(ctx context.Context, req transport.ValidateBookingRequest) (*transport.ValidateBookingResponse, error) {
	var conflicts []transport.ConflictResponse
	var suggestions []string

	timeConflicts, err := s.checkTimeConflicts(ctx, req)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, timeConflicts...)
	if len(timeConflicts) > 0 {
		suggestions = append(suggestions, "consider an adjacent time slot to spread the workload")
	}

	techConflicts, err := s.checkTechnicianConflicts(ctx, req)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, techConflicts...)
	if len(techConflicts) > 0 {
		suggestions = append(suggestions, "assign a different technician or pick another slot")
	}

	conflicts = append(conflicts, checkAttendanceCompatibility(req)...)
	conflicts = append(conflicts, checkEquipmentRules(req)...)
	conflicts = append(conflicts, s.checkFanOut(req)...)

	hasConflicts := false
	for _, c := range conflicts {
		if c.Severity == transport.SeverityError {
			hasConflicts = true
			break
		}
	}

	if hasConflicts {
		s.publishConflict(ctx, req, conflicts)
	}

	return &transport.ValidateBookingResponse{
		HasConflicts: hasConflicts,
		Conflicts:    conflicts,
		Suggestions:  suggestions,
	}, nil
}

// checkTimeConflicts flags any other non-cancelled order already occupying
// the slot. Advisory only: parallel work in one slot is sometimes intended.
func (s *Service) checkTimeConflicts(ctx context.Context, req transport.ValidateBookingRequest) ([]transport.ConflictResponse, error) {
	occupied, err := s.reader.ListOverlapping(ctx, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	own := ownOrderIDs(req)
	var out []transport.ConflictResponse
	for _, slot := range occupied {
		if own[slot.OrderID] {
			continue
		}
		orderID := slot.OrderID
		out = append(out, transport.ConflictResponse{
			Type:     transport.ConflictTime,
			Severity: transport.SeverityWarning,
			Message:  "another order already occupies this time slot",
			OrderID:  &orderID,
		})
	}
	return out, nil
}

// checkTechnicianConflicts is the only blocking check: a technician cannot
// hold two bookings in one slot, whether the second one comes from the store
// or from another group of this same request.
func (s *Service) checkTechnicianConflicts(ctx context.Context, req transport.ValidateBookingRequest) ([]transport.ConflictResponse, error) {
	var out []transport.ConflictResponse

	own := ownOrderIDs(req)
	flagged := make(map[uuid.UUID]bool)
	seenInRequest := make(map[uuid.UUID]bool)

	for _, group := range req.Groups {
		if group.TechnicianID == nil {
			continue
		}
		techID := *group.TechnicianID

		if seenInRequest[techID] {
			if !flagged[techID] {
				flagged[techID] = true
				id := techID
				out = append(out, transport.ConflictResponse{
					Type:         transport.ConflictTechnician,
					Severity:     transport.SeverityError,
					Message:      "technician is assigned to more than one group in this slot",
					TechnicianID: &id,
				})
			}
			continue
		}
		seenInRequest[techID] = true

		booked, err := s.reader.ListByTechnician(ctx, techID, req.StartTime, req.EndTime)
		if err != nil {
			return nil, err
		}
		for _, slot := range booked {
			if own[slot.OrderID] || flagged[techID] {
				continue
			}
			flagged[techID] = true
			id := techID
			orderID := slot.OrderID
			out = append(out, transport.ConflictResponse{
				Type:         transport.ConflictTechnician,
				Severity:     transport.SeverityError,
				Message:      "technician already has a booking in this slot",
				OrderID:      &orderID,
				TechnicianID: &id,
			})
		}
	}

	return out, nil
}

func checkAttendanceCompatibility(req transport.ValidateBookingRequest) []transport.ConflictResponse {
	var out []transport.ConflictResponse

	hasInHome := false
	hasPickup := false
	diverged := false
	for _, group := range req.Groups {
		if group.AttendanceType == workflow.AttendanceInHome {
			hasInHome = true
		} else {
			hasPickup = true
		}
		if group.AttendanceType != req.RequestedAttendance {
			diverged = true
		}
	}

	if hasInHome && hasPickup {
		out = append(out, transport.ConflictResponse{
			Type:     transport.ConflictAttendanceMix,
			Severity: transport.SeverityWarning,
			Message:  "booking mixes in-home and pickup attendance types",
		})
	}
	if diverged {
		out = append(out, transport.ConflictResponse{
			Type:     transport.ConflictAttendanceDiverged,
			Severity: transport.SeverityInfo,
			Message:  "a group diverges from the originally requested attendance type",
		})
	}

	return out
}

func checkEquipmentRules(req transport.ValidateBookingRequest) []transport.ConflictResponse {
	var out []transport.ConflictResponse

	seen := make(map[string]bool)
	duplicated := make(map[string]bool)
	for _, group := range req.Groups {
		for _, eq := range group.EquipmentIDs {
			if seen[eq] && !duplicated[eq] {
				duplicated[eq] = true
				out = append(out, transport.ConflictResponse{
					Type:     transport.ConflictDuplicateEquipment,
					Severity: transport.SeverityError,
					Message:  fmt.Sprintf("equipment %s appears in more than one group", eq),
				})
			}
			seen[eq] = true
		}
	}

	for _, eq := range req.RequestedEquipment {
		if !seen[eq] {
			out = append(out, transport.ConflictResponse{
				Type:     transport.ConflictMissingEquipment,
				Severity: transport.SeverityWarning,
				Message:  fmt.Sprintf("requested equipment %s is missing from the final grouping", eq),
			})
		}
	}

	return out
}

func (s *Service) checkFanOut(req transport.ValidateBookingRequest) []transport.ConflictResponse {
	max := s.cfg.GetMaxBookingFanOut()
	if max <= 0 || len(req.Groups) <= max {
		return nil
	}
	return []transport.ConflictResponse{{
		Type:     transport.ConflictExcessiveFanOut,
		Severity: transport.SeverityWarning,
		Message:  fmt.Sprintf("booking fans out into %d orders (threshold %d)", len(req.Groups), max),
	}}
}

func (s *Service) publishConflict(ctx context.Context, req transport.ValidateBookingRequest, conflicts []transport.ConflictResponse) {
	var techID uuid.UUID
	var orderIDs []uuid.UUID
	types := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		types = append(types, c.Type)
		if c.TechnicianID != nil {
			techID = *c.TechnicianID
		}
		if c.OrderID != nil {
			orderIDs = append(orderIDs, *c.OrderID)
		}
	}

	s.bus.Publish(ctx, events.BookingConflictDetected{
		BaseEvent:    events.NewBaseEvent(),
		TechnicianID: techID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		OrderIDs:     orderIDs,
		Conflicts:    types,
	})
}

func ownOrderIDs(req transport.ValidateBookingRequest) map[uuid.UUID]bool {
	own := make(map[uuid.UUID]bool)
	for _, group := range req.Groups {
		if group.OrderID != nil {
			own[*group.OrderID] = true
		}
	}
	return own
}
