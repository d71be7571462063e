package repository

import (
	"context"
	"fmt"
	"time"

	"repairdesk_backend/internal/workflow"

	"github.com/google/uuid"
)

// PaymentStage represents one payment checkpoint row of an order.
type PaymentStage struct {
	ID            uuid.UUID             `db:"id"`
	OrderID       uuid.UUID             `db:"order_id"`
	Stage         workflow.PaymentStage `db:"stage"`
	Amount        float64               `db:"amount"`
	Method        string                `db:"method"`
	RequiresPhoto bool                  `db:"requires_photo"`
	PhotoReceipt  string                `db:"photo_receipt"`
	Confirmed     bool                  `db:"confirmed"`
	ConfirmedAt   *time.Time            `db:"confirmed_at"`
	CreatedAt     time.Time             `db:"created_at"`
}

// UpsertPaymentStage records or replaces the payment row for a stage of an
// order. One row per (order, stage).
func (r *Repository) UpsertPaymentStage(ctx context.Context, p *PaymentStage) error {
	query := `
		INSERT INTO order_payment_stages (id, order_id, stage, amount, method, requires_photo, photo_receipt, confirmed, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (order_id, stage) DO UPDATE SET
			amount = EXCLUDED.amount,
			method = EXCLUDED.method,
			requires_photo = EXCLUDED.requires_photo,
			photo_receipt = EXCLUDED.photo_receipt,
			confirmed = EXCLUDED.confirmed,
			confirmed_at = EXCLUDED.confirmed_at`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OrderID, p.Stage, p.Amount, p.Method, p.RequiresPhoto, p.PhotoReceipt, p.Confirmed, p.ConfirmedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payment stage: %w", err)
	}

	return nil
}

// ListPaymentStages retrieves the payment rows of an order.
func (r *Repository) ListPaymentStages(ctx context.Context, orderID uuid.UUID) ([]PaymentStage, error) {
	query := `SELECT id, order_id, stage, amount, method, requires_photo, photo_receipt, confirmed, confirmed_at, created_at
		FROM order_payment_stages WHERE order_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment stages: %w", err)
	}
	defer rows.Close()

	var items []PaymentStage
	for rows.Next() {
		var p PaymentStage
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.Stage, &p.Amount, &p.Method, &p.RequiresPhoto, &p.PhotoReceipt, &p.Confirmed, &p.ConfirmedAt, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment stage: %w", err)
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment stages: %w", err)
	}

	return items, nil
}
