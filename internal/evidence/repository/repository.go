// Package repository persists evidence receipt records in Postgres. The
// photo bytes themselves live in object storage; a receipt row links an
// order to a stored file key.
package repository

import (
	"context"
	"errors"
	"time"

	"repairdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Receipt is one stored evidence photo record.
type Receipt struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  *uuid.UUID
	CreatedAt   time.Time
}

// CreateReceiptParams holds the fields for a new receipt row.
type CreateReceiptParams struct {
	OrderID     uuid.UUID
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  *uuid.UUID
}

// Repository provides access to evidence receipt data
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new evidence repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const receiptColumns = `id, order_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at`

func scanReceipt(row pgx.Row) (Receipt, error) {
	var r Receipt
	err := row.Scan(&r.ID, &r.OrderID, &r.FileKey, &r.FileName, &r.ContentType, &r.SizeBytes, &r.UploadedBy, &r.CreatedAt)
	return r, err
}

// OrderExists reports whether the given order is present.
func (r *Repository) OrderExists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	return exists, err
}

// CreateReceipt inserts a receipt row and returns it.
func (r *Repository) CreateReceipt(ctx context.Context, p CreateReceiptParams) (Receipt, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO order_evidence_receipts (order_id, file_key, file_name, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+receiptColumns,
		p.OrderID, p.FileKey, p.FileName, p.ContentType, p.SizeBytes, p.UploadedBy)
	return scanReceipt(row)
}

// GetByID returns one receipt of the given order.
func (r *Repository) GetByID(ctx context.Context, id, orderID uuid.UUID) (Receipt, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+receiptColumns+`
		FROM order_evidence_receipts
		WHERE id = $1 AND order_id = $2`, id, orderID)

	receipt, err := scanReceipt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, apperr.NotFound("receipt not found")
	}
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// ListByOrder returns all receipts of an order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Receipt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM order_evidence_receipts
		WHERE order_id = $1
		ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// Delete removes a receipt row.
func (r *Repository) Delete(ctx context.Context, id, orderID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM order_evidence_receipts WHERE id = $1 AND order_id = $2`, id, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("receipt not found")
	}
	return nil
}
