package repository

import (
	"context"
	"fmt"
	"time"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const payrollBatchColumns = `
	id, period_start, period_end, payment_date, total_amount, assignment_count,
	status, payment_reference, created_at, paid_at`

// PayrollBatchRepository implements the PayrollBatchRepository interface
type PayrollBatchRepository struct {
	q queryable
}

// NewPayrollBatchRepository creates a new payroll batch repository
func NewPayrollBatchRepository(db *database.DB) *PayrollBatchRepository {
	return &PayrollBatchRepository{q: db.Pool}
}

// newPayrollBatchRepositoryWithTx creates a new payroll batch repository with a transaction
func newPayrollBatchRepositoryWithTx(tx queryable) *PayrollBatchRepository {
	return &PayrollBatchRepository{q: tx}
}

func scanPayrollBatch(row rowScanner) (*models.PayrollBatch, error) {
	var batch models.PayrollBatch
	err := row.Scan(
		&batch.ID,
		&batch.PeriodStart,
		&batch.PeriodEnd,
		&batch.PaymentDate,
		&batch.TotalAmount,
		&batch.AssignmentCount,
		&batch.Status,
		&batch.PaymentReference,
		&batch.CreatedAt,
		&batch.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// Create inserts a payroll batch. A zero ID is generated by the database.
func (r *PayrollBatchRepository) Create(ctx context.Context, batch *models.PayrollBatch) error {
	if batch.Status == "" {
		batch.Status = models.PayrollBatchStatusDraft
	}

	query := `
		INSERT INTO payroll_batches
		(id, period_start, period_end, payment_date, total_amount, assignment_count, status, payment_reference)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	var id *uuid.UUID
	if batch.ID != uuid.Nil {
		id = &batch.ID
	}

	err := r.q.QueryRow(ctx, query,
		id,
		dateOnly(batch.PeriodStart),
		dateOnly(batch.PeriodEnd),
		dateOnly(batch.PaymentDate),
		batch.TotalAmount,
		batch.AssignmentCount,
		string(batch.Status),
		batch.PaymentReference,
	).Scan(&batch.ID, &batch.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payroll batch for period %s: %w",
			batch.PeriodStart.Format("2006-01-02"), err)
	}

	return nil
}

// GetByID retrieves a payroll batch by ID
func (r *PayrollBatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PayrollBatch, error) {
	query := `SELECT` + payrollBatchColumns + `
		FROM payroll_batches
		WHERE id = $1
	`

	batch, err := scanPayrollBatch(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll batch %s: %w", id, err)
	}
	return batch, nil
}

// List returns the most recent batches, newest period first
func (r *PayrollBatchRepository) List(ctx context.Context, limit int) ([]*models.PayrollBatch, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT` + payrollBatchColumns + `
		FROM payroll_batches
		ORDER BY period_start DESC, created_at DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll batches: %w", err)
	}
	defer rows.Close()

	var batches []*models.PayrollBatch
	for rows.Next() {
		batch, err := scanPayrollBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll batch: %w", err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payroll batches: %w", err)
	}

	return batches, nil
}

// MarkPaid moves a draft batch to paid. Batches in any other status are left alone.
func (r *PayrollBatchRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE payroll_batches
		SET status = 'paid', paid_at = $2
		WHERE id = $1 AND status = 'draft'
	`

	result, err := r.q.Exec(ctx, query, id, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark payroll batch %s paid: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrBatchAlreadyPaid, id)
	}
	return nil
}
