package transport

import (
	"time"

	"repairdesk_backend/internal/workflow"

	"github.com/google/uuid"
)

// ValidateBookingRequest is the request body for booking validation. A source
// booking may fan out into several groups; each group becomes one order.
type ValidateBookingRequest struct {
	StartTime           time.Time               `json:"startTime" validate:"required"`
	EndTime             time.Time               `json:"endTime" validate:"required,gtfield=StartTime"`
	RequestedAttendance workflow.AttendanceType `json:"requestedAttendance" validate:"required,oneof=in_home pickup_repair pickup_diagnosis"`
	RequestedEquipment  []string                `json:"requestedEquipment,omitempty" validate:"max=50,dive,max=100"`
	Groups              []BookingGroup          `json:"groups" validate:"required,min=1,max=50,dive"`
}

// BookingGroup is one resulting order of the booking.
type BookingGroup struct {
	OrderID        *uuid.UUID              `json:"orderId,omitempty"`
	TechnicianID   *uuid.UUID              `json:"technicianId,omitempty"`
	AttendanceType workflow.AttendanceType `json:"attendanceType" validate:"required,oneof=in_home pickup_repair pickup_diagnosis"`
	EquipmentIDs   []string                `json:"equipmentIds,omitempty" validate:"max=50,dive,max=100"`
}

// Conflict severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Conflict types.
const (
	ConflictTime               = "time_conflict"
	ConflictTechnician         = "technician_conflict"
	ConflictAttendanceMix      = "attendance_mix"
	ConflictAttendanceDiverged = "attendance_diverged"
	ConflictDuplicateEquipment = "duplicate_equipment"
	ConflictMissingEquipment   = "missing_equipment"
	ConflictExcessiveFanOut    = "excessive_fan_out"
)

// ConflictResponse is one typed conflict found by the validator.
type ConflictResponse struct {
	Type         string     `json:"type"`
	Severity     string     `json:"severity"`
	Message      string     `json:"message"`
	OrderID      *uuid.UUID `json:"orderId,omitempty"`
	TechnicianID *uuid.UUID `json:"technicianId,omitempty"`
}

// ValidateBookingResponse is the full conflict report. HasConflicts is true
// only when at least one conflict carries severity error; warnings and infos
// are advisory.
type ValidateBookingResponse struct {
	HasConflicts bool               `json:"hasConflicts"`
	Conflicts    []ConflictResponse `json:"conflicts"`
	Suggestions  []string           `json:"suggestions,omitempty"`
}
