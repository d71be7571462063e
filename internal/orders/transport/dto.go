package transport

import (
	"time"

	"repairdesk_backend/internal/workflow"

	"github.com/google/uuid"
)

// CreateOrderRequest is the request body for order intake.
type CreateOrderRequest struct {
	AttendanceType     workflow.AttendanceType `json:"attendanceType" validate:"required,oneof=in_home pickup_repair pickup_diagnosis"`
	ClientName         string                  `json:"clientName" validate:"required,min=2,max=200"`
	ClientPhone        string                  `json:"clientPhone" validate:"required,min=8,max=30"`
	ClientEmail        string                  `json:"clientEmail,omitempty" validate:"omitempty,email"`
	AddressStreet      string                  `json:"addressStreet" validate:"required,max=300"`
	AddressCity        string                  `json:"addressCity" validate:"required,max=100"`
	EquipmentType      string                  `json:"equipmentType" validate:"required,max=100"`
	EquipmentBrand     string                  `json:"equipmentBrand,omitempty" validate:"max=100"`
	EquipmentModel     string                  `json:"equipmentModel,omitempty" validate:"max=100"`
	EquipmentSerial    string                  `json:"equipmentSerial,omitempty" validate:"max=100"`
	ProblemDescription string                  `json:"problemDescription" validate:"required,min=5,max=2000"`
	InitialCost        float64                 `json:"initialCost" validate:"gte=0"`
}

// TransitionRequest is the request body for advancing an order's status.
type TransitionRequest struct {
	ToStatus      workflow.Status `json:"toStatus" validate:"required"`
	ActorID       uuid.UUID       `json:"actorId" validate:"required"`
	Skip          bool            `json:"skip"`
	SkipReason    string          `json:"skipReason,omitempty" validate:"required_if=Skip true,max=500"`
	PhotoReceipts []string        `json:"photoReceipts,omitempty" validate:"max=10,dive,max=200"`
	Text          string          `json:"text,omitempty" validate:"max=2000"`
	Selection     string          `json:"selection,omitempty" validate:"max=100"`
	CancelReason  string          `json:"cancelReason,omitempty" validate:"max=500"`
}

// ScheduleRequest is the request body for assigning a visit or collection slot.
type ScheduleRequest struct {
	TechnicianID uuid.UUID `json:"technicianId" validate:"required"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	ActorID      uuid.UUID `json:"actorId" validate:"required"`
}

// RecordPaymentRequest is the request body for confirming a payment stage.
type RecordPaymentRequest struct {
	Stage         workflow.PaymentStage `json:"stage" validate:"required,oneof=collection delivery full"`
	Amount        float64               `json:"amount" validate:"gt=0"`
	Method        string                `json:"method,omitempty" validate:"max=50"`
	ReceiptPhoto  string                `json:"receiptPhoto,omitempty" validate:"max=200"`
	RequiresPhoto bool                  `json:"requiresPhoto"`
}

// SetCostsRequest updates the cost fields of an order (e.g. after diagnosis).
type SetCostsRequest struct {
	InitialCost *float64 `json:"initialCost,omitempty" validate:"omitempty,gte=0"`
	FinalCost   *float64 `json:"finalCost,omitempty" validate:"omitempty,gte=0"`
}

// ListOrdersRequest is the query parameters for listing orders.
type ListOrdersRequest struct {
	Status         *workflow.Status         `form:"status"`
	AttendanceType *workflow.AttendanceType `form:"attendanceType" validate:"omitempty,oneof=in_home pickup_repair pickup_diagnosis"`
	Location       *workflow.Location       `form:"location" validate:"omitempty,oneof=client transit workshop delivered"`
	TechnicianID   *uuid.UUID               `form:"technicianId"`
	Search         string                   `form:"search" validate:"max=200"`
	Page           int                      `form:"page" validate:"min=1"`
	PageSize       int                      `form:"pageSize" validate:"min=1,max=100"`
}

// NextStepResponse describes what the next transition needs.
type NextStepResponse struct {
	NextStatus  *workflow.Status     `json:"nextStatus,omitempty"`
	Label       string               `json:"label,omitempty"`
	Requirement *RequirementResponse `json:"requirement,omitempty"`
	PaymentDue  *PaymentDueResponse  `json:"paymentDue,omitempty"`
}

// RequirementResponse describes the evidence a transition requires.
type RequirementResponse struct {
	Title     string           `json:"title"`
	AllowSkip bool             `json:"allowSkip"`
	Actions   []ActionResponse `json:"actions"`
}

// ActionResponse describes one evidence-capture step.
type ActionResponse struct {
	Type      workflow.ActionType `json:"type"`
	Prompt    string              `json:"prompt"`
	MinPhotos int                 `json:"minPhotos,omitempty"`
	MaxPhotos int                 `json:"maxPhotos,omitempty"`
	MinLength int                 `json:"minLength,omitempty"`
	Options   []string            `json:"options,omitempty"`
}

// PaymentDueResponse describes the payment checkpoint on the next transition.
type PaymentDueResponse struct {
	Stage  workflow.PaymentStage `json:"stage"`
	Amount float64               `json:"amount"`
}

// OrderResponse is the response body for a service order.
type OrderResponse struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        string                  `json:"orderNumber"`
	AttendanceType     workflow.AttendanceType `json:"attendanceType"`
	Status             workflow.Status         `json:"status"`
	StatusLabel        string                  `json:"statusLabel"`
	Location           workflow.Location       `json:"location"`
	ClientName         string                  `json:"clientName"`
	ClientPhone        string                  `json:"clientPhone"`
	ClientEmail        string                  `json:"clientEmail,omitempty"`
	AddressStreet      string                  `json:"addressStreet"`
	AddressCity        string                  `json:"addressCity"`
	EquipmentType      string                  `json:"equipmentType"`
	EquipmentBrand     string                  `json:"equipmentBrand,omitempty"`
	EquipmentModel     string                  `json:"equipmentModel,omitempty"`
	EquipmentSerial    string                  `json:"equipmentSerial,omitempty"`
	ProblemDescription string                  `json:"problemDescription"`
	TechnicianID       *uuid.UUID              `json:"technicianId,omitempty"`
	ScheduledStart     *time.Time              `json:"scheduledStart,omitempty"`
	ScheduledEnd       *time.Time              `json:"scheduledEnd,omitempty"`
	InitialCost        float64                 `json:"initialCost"`
	FinalCost          float64                 `json:"finalCost"`
	CreatedAt          time.Time               `json:"createdAt"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

// OrderListResponse is the paginated response for listing orders.
type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// TransitionRecordResponse is one audit entry in an order's history.
type TransitionRecordResponse struct {
	ID         uuid.UUID       `json:"id"`
	FromStatus workflow.Status `json:"fromStatus"`
	ToStatus   workflow.Status `json:"toStatus"`
	ActorID    uuid.UUID       `json:"actorId"`
	Skipped    bool            `json:"skipped"`
	SkipReason string          `json:"skipReason,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// PaymentStageResponse is one recorded payment stage of an order.
type PaymentStageResponse struct {
	Stage         workflow.PaymentStage `json:"stage"`
	Amount        float64               `json:"amount"`
	Method        string                `json:"method,omitempty"`
	RequiresPhoto bool                  `json:"requiresPhoto"`
	PhotoUploaded bool                  `json:"photoUploaded"`
	Confirmed     bool                  `json:"confirmed"`
	ConfirmedAt   *time.Time            `json:"confirmedAt,omitempty"`
}
