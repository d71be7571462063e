package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"repairdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event represents a calendar event projected from a service order.
// linked_order_id carries a unique index so each order projects at most one
// event; upserts are idempotent.
type Event struct {
	ID            uuid.UUID  `db:"id"`
	LinkedOrderID uuid.UUID  `db:"linked_order_id"`
	Title         string     `db:"title"`
	StatusClass   string     `db:"status_class"`
	TechnicianID  *uuid.UUID `db:"technician_id"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       time.Time  `db:"end_time"`
	Address       string     `db:"address"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

const eventColumns = `id, linked_order_id, title, status_class, technician_id, start_time, end_time, address, created_at, updated_at`

// Repository provides database operations for calendar events
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new calendar repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(
		&e.ID, &e.LinkedOrderID, &e.Title, &e.StatusClass, &e.TechnicianID,
		&e.StartTime, &e.EndTime, &e.Address, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertByOrder creates or replaces the event linked to an order.
func (r *Repository) UpsertByOrder(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO calendar_events (id, linked_order_id, title, status_class, technician_id, start_time, end_time, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (linked_order_id) DO UPDATE SET
			title = EXCLUDED.title,
			status_class = EXCLUDED.status_class,
			technician_id = EXCLUDED.technician_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.LinkedOrderID, e.Title, e.StatusClass, e.TechnicianID,
		e.StartTime, e.EndTime, e.Address, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert calendar event: %w", err)
	}

	return nil
}

// GetByOrder retrieves the event linked to an order.
func (r *Repository) GetByOrder(ctx context.Context, orderID uuid.UUID) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE linked_order_id = $1`

	e, err := scanEvent(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("calendar event not found")
		}
		return nil, fmt.Errorf("failed to get calendar event: %w", err)
	}

	return e, nil
}

// DeleteByOrder removes the event linked to an order. Deleting a missing
// event is not an error; projection deletes are idempotent.
func (r *Repository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM calendar_events WHERE linked_order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}
	return nil
}

// ListRange retrieves events overlapping the given window, optionally
// filtered by technician.
func (r *Repository) ListRange(ctx context.Context, from, to time.Time, technicianID *uuid.UUID) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE start_time < $2 AND end_time > $1`
	args := []interface{}{from, to}
	if technicianID != nil {
		query += ` AND technician_id = $3`
		args = append(args, *technicianID)
	}
	query += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		items = append(items, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calendar events: %w", err)
	}

	return items, nil
}

// ListAll retrieves every calendar event, for reconciliation.
func (r *Repository) ListAll(ctx context.Context) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		items = append(items, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate calendar events: %w", err)
	}

	return items, nil
}
