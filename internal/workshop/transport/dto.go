package transport

import (
	"time"

	"repairdesk_backend/internal/workflow"

	"github.com/google/uuid"
)

// Queue categories.
const (
	CategoryUrgent           = "urgent"
	CategoryDiagnosisPending = "diagnosis_pending"
	CategoryRepairApproved   = "repair_approved"
	CategoryAwaitingApproval = "awaiting_approval"
	CategoryReadyDelivery    = "ready_delivery"
)

// SLA statuses.
const (
	SLAOnTime  = "on_time"
	SLAWarning = "warning"
	SLAOverdue = "overdue"
)

// QueueItemResponse is one ranked entry of the workshop bench queue.
type QueueItemResponse struct {
	Position       int                     `json:"position"`
	OrderID        uuid.UUID               `json:"orderId"`
	OrderNumber    string                  `json:"orderNumber"`
	Status         workflow.Status         `json:"status"`
	AttendanceType workflow.AttendanceType `json:"attendanceType"`
	ClientName     string                  `json:"clientName"`
	EquipmentType  string                  `json:"equipmentType"`
	DwellHours     float64                 `json:"dwellHours"`
	Category       string                  `json:"category"`
	EstimatedHours float64                 `json:"estimatedHours"`
	SLADeadline    time.Time               `json:"slaDeadline"`
	SLAStatus      string                  `json:"slaStatus"`
	CanReorder     bool                    `json:"canReorder"`
}

// QueueResponse is the full workshop queue, already ordered.
type QueueResponse struct {
	Items       []QueueItemResponse `json:"items"`
	GeneratedAt time.Time           `json:"generatedAt"`
}
