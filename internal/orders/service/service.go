// Package service implements the order lifecycle operations: intake,
// scheduling, status transitions with evidence and payment gating, and the
// audit history.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"repairdesk_backend/internal/events"
	"repairdesk_backend/internal/orders/repository"
	"repairdesk_backend/internal/orders/transport"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/apperr"
	"repairdesk_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the service needs. Implemented by the
// orders repository; faked in tests.
type Store interface {
	NextOrderNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, o *repository.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedFrom, to workflow.Status, location workflow.Location) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, start, end time.Time) error
	UpdateCosts(ctx context.Context, id uuid.UUID, initialCost, finalCost *float64) error
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	RecordTransition(ctx context.Context, t *repository.Transition) error
	ListTransitions(ctx context.Context, orderID uuid.UUID) ([]repository.Transition, error)
	UpsertPaymentStage(ctx context.Context, p *repository.PaymentStage) error
	ListPaymentStages(ctx context.Context, orderID uuid.UUID) ([]repository.PaymentStage, error)
}

// CalendarProjector keeps the calendar view in step with order changes.
// Projection failures are logged and never fail the order operation; the
// reconciler repairs any divergence later.
type CalendarProjector interface {
	ProjectOrder(ctx context.Context, snapshot ProjectionSnapshot) error
}

// ProjectionSnapshot carries the order fields the calendar projection needs.
type ProjectionSnapshot struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Status         workflow.Status
	ClientName     string
	AddressStreet  string
	AddressCity    string
	TechnicianID   *uuid.UUID
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

// Service provides order lifecycle business logic
type Service struct {
	repo      Store
	projector CalendarProjector
	bus       events.Bus
	log       *logger.Logger
}

// New creates a new orders service
func New(repo Store, projector CalendarProjector, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, projector: projector, bus: bus, log: log}
}

// Create performs order intake: the order starts pending with the flow table
// selected by its attendance type.
func (s *Service) Create(ctx context.Context, req transport.CreateOrderRequest) (*transport.OrderResponse, error) {
	if !workflow.IsKnownAttendanceType(req.AttendanceType) {
		return nil, apperr.Validation("unknown attendance type")
	}

	number, err := s.repo.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &repository.Order{
		ID:                 uuid.New(),
		OrderNumber:        number,
		AttendanceType:     req.AttendanceType,
		Status:             workflow.StatusPending,
		Location:           workflow.LocationClient,
		ClientName:         req.ClientName,
		ClientPhone:        req.ClientPhone,
		ClientEmail:        req.ClientEmail,
		AddressStreet:      req.AddressStreet,
		AddressCity:        req.AddressCity,
		EquipmentType:      req.EquipmentType,
		EquipmentBrand:     req.EquipmentBrand,
		EquipmentModel:     req.EquipmentModel,
		EquipmentSerial:    req.EquipmentSerial,
		ProblemDescription: req.ProblemDescription,
		InitialCost:        req.InitialCost,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.OrderCreated{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		AttendanceType: string(order.AttendanceType),
		ClientName:     order.ClientName,
		ClientEmail:    order.ClientEmail,
	})

	resp := order.ToResponse()
	return &resp, nil
}

// GetByID retrieves a single order
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := order.ToResponse()
	return &resp, nil
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req transport.ListOrdersRequest) (*transport.OrderListResponse, error) {
	result, err := s.repo.List(ctx, repository.ListParams{
		Status:         req.Status,
		AttendanceType: req.AttendanceType,
		Location:       req.Location,
		TechnicianID:   req.TechnicianID,
		Search:         req.Search,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]transport.OrderResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, result.Items[i].ToResponse())
	}

	return &transport.OrderListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// NextStep describes the next legal transition of an order and what it will
// require, so clients can render the capture UI up front.
func (s *Service) NextStep(ctx context.Context, id uuid.UUID) (*transport.NextStepResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := workflow.Next(order.Status, order.AttendanceType)
	if !ok {
		return &transport.NextStepResponse{}, nil
	}

	resp := &transport.NextStepResponse{NextStatus: &next}
	if idx := workflow.IndexOf(next, order.AttendanceType); idx >= 0 {
		resp.Label = workflow.Flow(order.AttendanceType)[idx].Label
	}

	if req, found := workflow.RequirementFor(order.Status, next, order.AttendanceType); found {
		actions := make([]transport.ActionResponse, 0, len(req.Actions))
		for _, a := range req.Actions {
			actions = append(actions, transport.ActionResponse{
				Type:      a.Type,
				Prompt:    a.Prompt,
				MinPhotos: a.MinPhotos,
				MaxPhotos: a.MaxPhotos,
				MinLength: a.MinLength,
				Options:   a.Options,
			})
		}
		resp.Requirement = &transport.RequirementResponse{
			Title:     req.Title,
			AllowSkip: req.AllowSkip,
			Actions:   actions,
		}
	}

	if stage, gated := workflow.StageForTransition(order.Status, next, order.AttendanceType); gated {
		resp.PaymentDue = &transport.PaymentDueResponse{
			Stage:  stage,
			Amount: workflow.AmountDue(stage, order.InitialCost, order.FinalCost),
		}
	}

	return resp, nil
}

// Transition attempts to move an order to a new status. The order mutates
// only when the flow table, the evidence requirement, and the payment policy
// all allow it; any rejection leaves the order untouched.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req transport.TransitionRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	to := req.ToStatus

	if err := workflow.CanTransition(from, to, order.AttendanceType); err != nil {
		var illegal *workflow.IllegalTransitionError
		if errors.As(err, &illegal) {
			return nil, apperr.Validation(illegal.Error())
		}
		return nil, err
	}

	skipped := false
	evidence := workflow.Evidence{
		PhotoReceipts: req.PhotoReceipts,
		Text:          req.Text,
		Selection:     req.Selection,
	}
	if requirement, found := workflow.RequirementFor(from, to, order.AttendanceType); found {
		missing := workflow.ValidateEvidence(requirement, evidence)
		if len(missing) > 0 {
			if !req.Skip {
				return nil, apperr.Validation("required evidence is incomplete").WithDetails(map[string]interface{}{
					"missing": missing,
				})
			}
			if !requirement.AllowSkip {
				return nil, apperr.Validation("this step's evidence cannot be skipped")
			}
			if strings.TrimSpace(req.SkipReason) == "" {
				return nil, apperr.Validation("a skip reason is required")
			}
			skipped = true
		}
	}

	stages, err := s.repo.ListPaymentStages(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanProceed(from, to, order.AttendanceType, order.InitialCost, order.FinalCost, toStageRecords(stages)); err != nil {
		var payErr *workflow.PaymentRequiredError
		if errors.As(err, &payErr) {
			return nil, apperr.Validation("payment required before this step").WithDetails(map[string]interface{}{
				"stage":  payErr.Stage,
				"amount": payErr.Amount,
			})
		}
		return nil, err
	}

	location := order.Location
	if loc, ok := workflow.LocationFor(to); ok {
		location = loc
	}

	if err := s.repo.UpdateStatusIf(ctx, id, from, to, location); err != nil {
		return nil, err
	}
	order.Status = to
	order.Location = location

	evidenceJSON, _ := json.Marshal(evidence)
	if err := s.repo.RecordTransition(ctx, &repository.Transition{
		ID:         uuid.New(),
		OrderID:    id,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    req.ActorID,
		Skipped:    skipped,
		SkipReason: req.SkipReason,
		Evidence:   evidenceJSON,
		CreatedAt:  time.Now(),
	}); err != nil {
		s.log.Error("failed to record transition audit entry", "orderId", id, "error", err)
	}

	s.log.Transition(id.String(), string(from), string(to), skipped)
	s.publishTransitionEvents(ctx, order, from, req, skipped)
	s.projectCalendar(ctx, order)

	resp := order.ToResponse()
	return &resp, nil
}

// Schedule assigns a technician and time slot. A pending order also advances
// to its first scheduled status.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID, req transport.ScheduleRequest) (*transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.IsTerminal(order.Status) {
		return nil, apperr.Validation("cannot schedule a closed order")
	}

	if err := s.repo.UpdateSchedule(ctx, id, req.TechnicianID, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	order.TechnicianID = &req.TechnicianID
	order.ScheduledStart = &req.StartTime
	order.ScheduledEnd = &req.EndTime

	if order.Status == workflow.StatusPending {
		next, ok := workflow.Next(order.Status, order.AttendanceType)
		if !ok {
			return nil, apperr.Validation("order flow has no scheduling step")
		}
		if err := s.repo.UpdateStatusIf(ctx, id, workflow.StatusPending, next, order.Location); err != nil {
			return nil, err
		}
		if err := s.repo.RecordTransition(ctx, &repository.Transition{
			ID:         uuid.New(),
			OrderID:    id,
			FromStatus: workflow.StatusPending,
			ToStatus:   next,
			ActorID:    req.ActorID,
			CreatedAt:  time.Now(),
		}); err != nil {
			s.log.Error("failed to record transition audit entry", "orderId", id, "error", err)
		}
		order.Status = next
	}

	s.bus.Publish(ctx, events.OrderScheduled{
		BaseEvent:    events.NewBaseEvent(),
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		TechnicianID: order.TechnicianID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		ClientEmail:  order.ClientEmail,
	})
	s.projectCalendar(ctx, order)

	resp := order.ToResponse()
	return &resp, nil
}

// RecordPayment confirms a payment stage of an order.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, req transport.RecordPaymentRequest) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.repo.UpsertPaymentStage(ctx, &repository.PaymentStage{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Stage:         req.Stage,
		Amount:        req.Amount,
		Method:        req.Method,
		RequiresPhoto: req.RequiresPhoto,
		PhotoReceipt:  req.ReceiptPhoto,
		Confirmed:     true,
		ConfirmedAt:   &now,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.PaymentRecorded{
		BaseEvent: events.NewBaseEvent(),
		OrderID:   order.ID,
		Stage:     string(req.Stage),
		Amount:    req.Amount,
	})

	return nil
}

// ListPayments retrieves the payment rows of an order.
func (s *Service) ListPayments(ctx context.Context, id uuid.UUID) ([]transport.PaymentStageResponse, error) {
	stages, err := s.repo.ListPaymentStages(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]transport.PaymentStageResponse, 0, len(stages))
	for _, p := range stages {
		items = append(items, transport.PaymentStageResponse{
			Stage:         p.Stage,
			Amount:        p.Amount,
			Method:        p.Method,
			RequiresPhoto: p.RequiresPhoto,
			PhotoUploaded: p.PhotoReceipt != "",
			Confirmed:     p.Confirmed,
			ConfirmedAt:   p.ConfirmedAt,
		})
	}
	return items, nil
}

// SetCosts updates the cost fields of an order, typically after diagnosis.
func (s *Service) SetCosts(ctx context.Context, id uuid.UUID, req transport.SetCostsRequest) error {
	if req.InitialCost == nil && req.FinalCost == nil {
		return apperr.Validation("no cost fields provided")
	}
	return s.repo.UpdateCosts(ctx, id, req.InitialCost, req.FinalCost)
}

// History retrieves the transition audit log of an order.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]transport.TransitionRecordResponse, error) {
	records, err := s.repo.ListTransitions(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]transport.TransitionRecordResponse, 0, len(records))
	for _, t := range records {
		items = append(items, transport.TransitionRecordResponse{
			ID:         t.ID,
			FromStatus: t.FromStatus,
			ToStatus:   t.ToStatus,
			ActorID:    t.ActorID,
			Skipped:    t.Skipped,
			SkipReason: t.SkipReason,
			CreatedAt:  t.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) publishTransitionEvents(ctx context.Context, order *repository.Order, from workflow.Status, req transport.TransitionRequest, skipped bool) {
	s.bus.Publish(ctx, events.OrderTransitioned{
		BaseEvent:      events.NewBaseEvent(),
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		AttendanceType: string(order.AttendanceType),
		FromStatus:     string(from),
		ToStatus:       string(order.Status),
		ActorID:        req.ActorID,
		Skipped:        skipped,
		ClientEmail:    order.ClientEmail,
	})

	if skipped {
		s.bus.Publish(ctx, events.RequirementSkipped{
			BaseEvent:  events.NewBaseEvent(),
			OrderID:    order.ID,
			FromStatus: string(from),
			ToStatus:   string(order.Status),
			ActorID:    req.ActorID,
			Reason:     req.SkipReason,
		})
	}

	if order.Status == workflow.StatusCancelled {
		s.bus.Publish(ctx, events.OrderCancelled{
			BaseEvent:   events.NewBaseEvent(),
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			ActorID:     req.ActorID,
			Reason:      req.CancelReason,
			ClientEmail: order.ClientEmail,
		})
	}
}

func (s *Service) projectCalendar(ctx context.Context, order *repository.Order) {
	if s.projector == nil {
		return
	}
	err := s.projector.ProjectOrder(ctx, ProjectionSnapshot{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		ClientName:     order.ClientName,
		AddressStreet:  order.AddressStreet,
		AddressCity:    order.AddressCity,
		TechnicianID:   order.TechnicianID,
		ScheduledStart: order.ScheduledStart,
		ScheduledEnd:   order.ScheduledEnd,
	})
	if err != nil {
		s.log.SyncDivergence("projection_failed", order.ID.String())
	}
}

func toStageRecords(stages []repository.PaymentStage) []workflow.StageRecord {
	records := make([]workflow.StageRecord, 0, len(stages))
	for _, p := range stages {
		records = append(records, workflow.StageRecord{
			Stage:         p.Stage,
			Amount:        p.Amount,
			RequiresPhoto: p.RequiresPhoto,
			PhotoUploaded: p.PhotoReceipt != "",
			Confirmed:     p.Confirmed,
		})
	}
	return records
}
