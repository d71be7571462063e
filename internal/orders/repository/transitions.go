package repository

import (
	"context"
	"fmt"
	"time"

	"repairdesk_backend/internal/workflow"

	"github.com/google/uuid"
)

// Transition represents one committed status change in the audit log.
type Transition struct {
	ID         uuid.UUID       `db:"id"`
	OrderID    uuid.UUID       `db:"order_id"`
	FromStatus workflow.Status `db:"from_status"`
	ToStatus   workflow.Status `db:"to_status"`
	ActorID    uuid.UUID       `db:"actor_id"`
	Skipped    bool            `db:"skipped"`
	SkipReason string          `db:"skip_reason"`
	Evidence   []byte          `db:"evidence"`
	CreatedAt  time.Time       `db:"created_at"`
}

// RecordTransition appends an audit entry for a committed transition.
func (r *Repository) RecordTransition(ctx context.Context, t *Transition) error {
	query := `
		INSERT INTO order_transitions (id, order_id, from_status, to_status, actor_id, skipped, skip_reason, evidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.OrderID, t.FromStatus, t.ToStatus, t.ActorID, t.Skipped, t.SkipReason, t.Evidence, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}

	return nil
}

// ListTransitions retrieves the audit history of an order, oldest first.
func (r *Repository) ListTransitions(ctx context.Context, orderID uuid.UUID) ([]Transition, error) {
	query := `SELECT id, order_id, from_status, to_status, actor_id, skipped, skip_reason, evidence, created_at
		FROM order_transitions WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var items []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(
			&t.ID, &t.OrderID, &t.FromStatus, &t.ToStatus, &t.ActorID, &t.Skipped, &t.SkipReason, &t.Evidence, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transitions: %w", err)
	}

	return items, nil
}
