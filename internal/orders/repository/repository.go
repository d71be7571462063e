package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairdesk_backend/internal/orders/transport"
	"repairdesk_backend/internal/workflow"
	"repairdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Order represents the service order database model
type Order struct {
	ID                 uuid.UUID               `db:"id"`
	OrderNumber        string                  `db:"order_number"`
	AttendanceType     workflow.AttendanceType `db:"attendance_type"`
	Status             workflow.Status         `db:"status"`
	Location           workflow.Location       `db:"location"`
	ClientName         string                  `db:"client_name"`
	ClientPhone        string                  `db:"client_phone"`
	ClientEmail        string                  `db:"client_email"`
	AddressStreet      string                  `db:"address_street"`
	AddressCity        string                  `db:"address_city"`
	EquipmentType      string                  `db:"equipment_type"`
	EquipmentBrand     string                  `db:"equipment_brand"`
	EquipmentModel     string                  `db:"equipment_model"`
	EquipmentSerial    string                  `db:"equipment_serial"`
	ProblemDescription string                  `db:"problem_description"`
	TechnicianID       *uuid.UUID              `db:"technician_id"`
	ScheduledStart     *time.Time              `db:"scheduled_start"`
	ScheduledEnd       *time.Time              `db:"scheduled_end"`
	InitialCost        float64                 `db:"initial_cost"`
	FinalCost          float64                 `db:"final_cost"`
	CreatedAt          time.Time               `db:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at"`
}

const orderNotFoundMsg = "order not found"

const orderColumns = `id, order_number, attendance_type, status, location, client_name, client_phone,
	client_email, address_street, address_city, equipment_type, equipment_brand, equipment_model,
	equipment_serial, problem_description, technician_id, scheduled_start, scheduled_end,
	initial_cost, final_cost, created_at, updated_at`

// Repository provides database operations for service orders
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.AttendanceType, &o.Status, &o.Location, &o.ClientName,
		&o.ClientPhone, &o.ClientEmail, &o.AddressStreet, &o.AddressCity, &o.EquipmentType,
		&o.EquipmentBrand, &o.EquipmentModel, &o.EquipmentSerial, &o.ProblemDescription,
		&o.TechnicianID, &o.ScheduledStart, &o.ScheduledEnd, &o.InitialCost, &o.FinalCost,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// NextOrderNumber reserves the next sequential order number.
func (r *Repository) NextOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to reserve order number: %w", err)
	}
	return fmt.Sprintf("ORD-%d-%05d", time.Now().Year(), seq), nil
}

// Create inserts a new order
func (r *Repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, attendance_type, status, location, client_name, client_phone,
			client_email, address_street, address_city, equipment_type, equipment_brand,
			equipment_model, equipment_serial, problem_description, technician_id,
			scheduled_start, scheduled_end, initial_cost, final_cost, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.OrderNumber, o.AttendanceType, o.Status, o.Location, o.ClientName, o.ClientPhone,
		o.ClientEmail, o.AddressStreet, o.AddressCity, o.EquipmentType, o.EquipmentBrand,
		o.EquipmentModel, o.EquipmentSerial, o.ProblemDescription, o.TechnicianID,
		o.ScheduledStart, o.ScheduledEnd, o.InitialCost, o.FinalCost, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(orderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return o, nil
}

// UpdateStatusIf moves an order to a new status only when its current status
// still equals the expected one. Zero rows affected means another actor moved
// the order first; the caller must reload and re-evaluate.
func (r *Repository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expectedFrom, to workflow.Status, location workflow.Location) error {
	query := `UPDATE orders SET status = $3, location = $4, updated_at = $5 WHERE id = $1 AND status = $2`

	result, err := r.pool.Exec(ctx, query, id, expectedFrom, to, location, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.Conflict("order status changed concurrently")
	}

	return nil
}

// UpdateSchedule assigns a technician and time slot to an order
func (r *Repository) UpdateSchedule(ctx context.Context, id uuid.UUID, technicianID uuid.UUID, start, end time.Time) error {
	query := `UPDATE orders SET technician_id = $2, scheduled_start = $3, scheduled_end = $4, updated_at = $5 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, technicianID, start, end, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order schedule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMsg)
	}

	return nil
}

// UpdateCosts updates the cost fields of an order. Nil fields are left unchanged.
func (r *Repository) UpdateCosts(ctx context.Context, id uuid.UUID, initialCost, finalCost *float64) error {
	query := `UPDATE orders SET
		initial_cost = COALESCE($2, initial_cost),
		final_cost = COALESCE($3, final_cost),
		updated_at = $4
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, initialCost, finalCost, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order costs: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMsg)
	}

	return nil
}

// ListParams contains parameters for listing orders
type ListParams struct {
	Status         *workflow.Status
	AttendanceType *workflow.AttendanceType
	Location       *workflow.Location
	TechnicianID   *uuid.UUID
	Search         string
	Page           int
	PageSize       int
}

// ListResult contains the result of listing orders
type ListResult struct {
	Items      []Order
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List retrieves orders with optional filtering
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	baseQuery := `FROM orders WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	addFilter(&baseQuery, &args, &argIndex, params.Status != nil, " AND status = $%d", derefStatus(params.Status))
	addFilter(&baseQuery, &args, &argIndex, params.AttendanceType != nil, " AND attendance_type = $%d", derefAttendance(params.AttendanceType))
	addFilter(&baseQuery, &args, &argIndex, params.Location != nil, " AND location = $%d", derefLocation(params.Location))
	addFilter(&baseQuery, &args, &argIndex, params.TechnicianID != nil, " AND technician_id = $%d", derefUUID(params.TechnicianID))
	if params.Search != "" {
		baseQuery += fmt.Sprintf(" AND (order_number ILIKE $%d OR client_name ILIKE $%d OR equipment_type ILIKE $%d)",
			argIndex, argIndex, argIndex)
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	offset := (params.Page - 1) * params.PageSize

	selectQuery := fmt.Sprintf(`SELECT `+orderColumns+` %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		baseQuery, argIndex, argIndex+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ListByTechnicianAndSlot retrieves a technician's non-terminal orders whose
// scheduled slot overlaps the given window. Overlap means the slot starts
// before the window ends and ends after the window starts.
func (r *Repository) ListByTechnicianAndSlot(ctx context.Context, technicianID uuid.UUID, start, end time.Time) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE technician_id = $1
		AND scheduled_start < $3 AND scheduled_end > $2
		AND status NOT IN ('completed', 'cancelled', 'quote_rejected', 'returned')
		ORDER BY scheduled_start ASC`

	rows, err := r.pool.Query(ctx, query, technicianID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by technician slot: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return items, nil
}

// ListByLocation retrieves all non-terminal orders at a physical location.
func (r *Repository) ListByLocation(ctx context.Context, location workflow.Location) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE location = $1
		AND status NOT IN ('completed', 'cancelled', 'quote_rejected', 'returned')
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by location: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return items, nil
}

// ListOverlappingSlot retrieves all non-terminal orders whose scheduled slot
// overlaps the given window, regardless of technician.
func (r *Repository) ListOverlappingSlot(ctx context.Context, start, end time.Time) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE scheduled_start < $2 AND scheduled_end > $1
		AND status NOT IN ('completed', 'cancelled', 'quote_rejected', 'returned')
		ORDER BY scheduled_start ASC`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping orders: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return items, nil
}

// ListScheduled retrieves all non-terminal orders that carry a schedule slot.
// Used by the calendar reconciler as the source of truth.
func (r *Repository) ListScheduled(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE scheduled_start IS NOT NULL
		AND status NOT IN ('completed', 'cancelled', 'quote_rejected', 'returned')
		ORDER BY scheduled_start ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled orders: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return items, nil
}

// ListByStatuses retrieves orders currently in any of the given statuses.
func (r *Repository) ListByStatuses(ctx context.Context, statuses []workflow.Status) ([]Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ANY($1) ORDER BY updated_at ASC`

	rows, err := r.pool.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by statuses: %w", err)
	}
	defer rows.Close()

	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return items, nil
}

// ToResponse converts an Order to OrderResponse
func (o *Order) ToResponse() transport.OrderResponse {
	label := ""
	if idx := workflow.IndexOf(o.Status, o.AttendanceType); idx >= 0 {
		label = workflow.Flow(o.AttendanceType)[idx].Label
	}

	return transport.OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		AttendanceType:     o.AttendanceType,
		Status:             o.Status,
		StatusLabel:        label,
		Location:           o.Location,
		ClientName:         o.ClientName,
		ClientPhone:        o.ClientPhone,
		ClientEmail:        o.ClientEmail,
		AddressStreet:      o.AddressStreet,
		AddressCity:        o.AddressCity,
		EquipmentType:      o.EquipmentType,
		EquipmentBrand:     o.EquipmentBrand,
		EquipmentModel:     o.EquipmentModel,
		EquipmentSerial:    o.EquipmentSerial,
		ProblemDescription: o.ProblemDescription,
		TechnicianID:       o.TechnicianID,
		ScheduledStart:     o.ScheduledStart,
		ScheduledEnd:       o.ScheduledEnd,
		InitialCost:        o.InitialCost,
		FinalCost:          o.FinalCost,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func addFilter(baseQuery *string, args *[]interface{}, argIndex *int, apply bool, clause string, value interface{}) {
	if !apply {
		return
	}
	*baseQuery += fmt.Sprintf(clause, *argIndex)
	*args = append(*args, value)
	*argIndex++
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.UUID{}
	}
	return *value
}

func derefStatus(value *workflow.Status) workflow.Status {
	if value == nil {
		return ""
	}
	return *value
}

func derefAttendance(value *workflow.AttendanceType) workflow.AttendanceType {
	if value == nil {
		return ""
	}
	return *value
}

func derefLocation(value *workflow.Location) workflow.Location {
	if value == nil {
		return ""
	}
	return *value
}
