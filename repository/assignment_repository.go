package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assignmentRoleConstraint = "event_staff_assignments_event_role_unique"

const assignmentColumns = `
	a.id, a.event_id, a.role, a.role_key, a.staff_id, a.status, a.pay_type,
	a.pay_rate, a.total_pay, a.compensation_config, a.pay_rate_id, a.is_paid,
	a.paid_at, a.payroll_batch_id, a.payment_reference, a.created_at, a.updated_at`

// AssignmentRepository implements the AssignmentRepository interface
type AssignmentRepository struct {
	q queryable
}

// NewAssignmentRepository creates a new assignment repository
func NewAssignmentRepository(db *database.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db.Pool}
}

// newAssignmentRepositoryWithTx creates a new assignment repository with a transaction
func newAssignmentRepositoryWithTx(tx queryable) *AssignmentRepository {
	return &AssignmentRepository{q: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*models.EventStaffAssignment, error) {
	var a models.EventStaffAssignment
	var configJSON []byte

	err := row.Scan(
		&a.ID,
		&a.EventID,
		&a.Role,
		&a.RoleKey,
		&a.StaffID,
		&a.Status,
		&a.PayType,
		&a.PayRate,
		&a.TotalPay,
		&configJSON,
		&a.PayRateID,
		&a.IsPaid,
		&a.PaidAt,
		&a.PayrollBatchID,
		&a.PaymentReference,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		var config models.CompensationOverride
		if err := json.Unmarshal(configJSON, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal compensation config: %w", err)
		}
		a.CompensationConfig = &config
	}

	return &a, nil
}

func collectAssignments(rows pgx.Rows) ([]*models.EventStaffAssignment, error) {
	defer rows.Close()

	var assignments []*models.EventStaffAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func marshalCompensationConfig(config *models.CompensationOverride) ([]byte, error) {
	if config.IsEmpty() {
		return nil, nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compensation config: %w", err)
	}
	return data, nil
}

// ListByEvent returns all assignments for an event ordered by role
func (r *AssignmentRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error) {
	query := `SELECT` + assignmentColumns + `
		FROM event_staff_assignments a
		WHERE a.event_id = $1
		ORDER BY a.role_key, a.created_at
	`

	rows, err := r.q.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for event %s: %w", eventID, err)
	}
	return collectAssignments(rows)
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventStaffAssignment, error) {
	query := `SELECT` + assignmentColumns + `
		FROM event_staff_assignments a
		WHERE a.id = $1
	`

	a, err := scanAssignment(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %s: %w", id, err)
	}
	return a, nil
}

// GetByEventAndRole retrieves the assignment holding a role at an event
func (r *AssignmentRepository) GetByEventAndRole(ctx context.Context, eventID uuid.UUID, role models.RoleID) (*models.EventStaffAssignment, error) {
	query := `SELECT` + assignmentColumns + `
		FROM event_staff_assignments a
		WHERE a.event_id = $1 AND a.role_key = $2
	`

	a, err := scanAssignment(r.q.QueryRow(ctx, query, eventID, string(role)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment for event %s role %s: %w", eventID, role, err)
	}
	return a, nil
}

// Create inserts a new assignment and fills in its generated fields
func (r *AssignmentRepository) Create(ctx context.Context, a *models.EventStaffAssignment) error {
	if a.RoleKey == "" {
		key, err := r.roleKeyForLabel(ctx, a.Role)
		if err != nil {
			return err
		}
		a.RoleKey = key
	}
	if a.Status == "" {
		a.Status = models.AssignmentStatusPending
	}
	if a.PayType == "" {
		a.PayType = models.PayTypeFlat
	}

	configJSON, err := marshalCompensationConfig(a.CompensationConfig)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO event_staff_assignments
		(event_id, role, role_key, staff_id, status, pay_type, pay_rate, total_pay, compensation_config, pay_rate_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		a.EventID,
		a.Role,
		string(a.RoleKey),
		a.StaffID,
		string(a.Status),
		a.PayType,
		a.PayRate,
		a.TotalPay,
		configJSON,
		a.PayRateID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if isUniqueViolation(err, assignmentRoleConstraint) {
		return fmt.Errorf("%w: event %s role %s", models.ErrDuplicateAssignment, a.EventID, a.RoleKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create assignment for event %s role %s: %w", a.EventID, a.RoleKey, err)
	}
	return nil
}

// roleKeyForLabel maps a label to the position key of the stored rule whose
// label matches it case-insensitively, or to the normalized label when none does
func (r *AssignmentRepository) roleKeyForLabel(ctx context.Context, label string) (models.RoleID, error) {
	normalized := models.NormalizeRole(label)

	rows, err := r.q.Query(ctx, `SELECT position_key, position_label FROM pay_rate_rules`)
	if err != nil {
		return "", fmt.Errorf("failed to load rule labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, ruleLabel string
		if err := rows.Scan(&key, &ruleLabel); err != nil {
			return "", fmt.Errorf("failed to scan rule label: %w", err)
		}
		if models.NormalizeRole(ruleLabel) == normalized {
			return models.NormalizeRole(key), nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to iterate rule labels: %w", err)
	}
	return normalized, nil
}

// UpdateStaff changes the staffer of an assignment, leaving compensation untouched
func (r *AssignmentRepository) UpdateStaff(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error {
	query := `
		UPDATE event_staff_assignments
		SET staff_id = $2, updated_at = NOW()
		WHERE id = $1 AND payroll_batch_id IS NULL AND is_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, id, staffID)
	if err != nil {
		return fmt.Errorf("failed to update staff for assignment %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return r.missingOrLocked(ctx, id)
	}
	return nil
}

// UpdateCompensation stores recomputed pay on an assignment that is not yet batched
func (r *AssignmentRepository) UpdateCompensation(ctx context.Context, id uuid.UUID, payRate float64, totalPay *float64, config *models.CompensationOverride) error {
	configJSON, err := marshalCompensationConfig(config)
	if err != nil {
		return err
	}

	query := `
		UPDATE event_staff_assignments
		SET pay_rate = $2, total_pay = $3, compensation_config = $4, updated_at = NOW()
		WHERE id = $1 AND payroll_batch_id IS NULL AND is_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, id, payRate, totalPay, configJSON)
	if err != nil {
		return fmt.Errorf("failed to update compensation for assignment %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", models.ErrAssignmentLocked, id)
	}
	return nil
}

// Delete removes an assignment that is not yet batched or paid
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM event_staff_assignments
		WHERE id = $1 AND payroll_batch_id IS NULL AND is_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return r.missingOrLocked(ctx, id)
	}
	return nil
}

// missingOrLocked explains why a guarded write touched no row
func (r *AssignmentRepository) missingOrLocked(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM event_staff_assignments WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check assignment %s: %w", id, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", models.ErrAssignmentLocked, id)
	}
	return fmt.Errorf("%w: %s", models.ErrAssignmentNotFound, id)
}

// List returns assignments matching the filter, ordered by event date then role
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]*models.EventStaffAssignment, error) {
	var conditions []string
	var args []any

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.EventID != nil {
		conditions = append(conditions, "a.event_id = "+addArg(*filter.EventID))
	}
	if filter.IsPaid != nil {
		conditions = append(conditions, "a.is_paid = "+addArg(*filter.IsPaid))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, "a.status = ANY("+addArg(statuses)+"::text[])")
	}
	if filter.BatchID != nil {
		conditions = append(conditions, "a.payroll_batch_id = "+addArg(*filter.BatchID))
	}
	if filter.Unbatched {
		conditions = append(conditions, "a.payroll_batch_id IS NULL")
	}
	if filter.EventDateFrom != nil {
		conditions = append(conditions, "e.event_date >= "+addArg(dateOnly(*filter.EventDateFrom))+"::date")
	}
	if filter.EventDateTo != nil {
		conditions = append(conditions, "e.event_date <= "+addArg(dateOnly(*filter.EventDateTo))+"::date")
	}

	query := `SELECT` + assignmentColumns + `
		FROM event_staff_assignments a
		JOIN events e ON e.id = a.event_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.event_date, a.role_key, a.created_at"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return collectAssignments(rows)
}

// LinkToBatch links the given assignments to a batch. Rows already linked
// elsewhere are left alone, so the returned count may be short.
func (r *AssignmentRepository) LinkToBatch(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID, reference string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE event_staff_assignments
		SET payroll_batch_id = $2, payment_reference = $3, updated_at = NOW()
		WHERE id = ANY($1::uuid[]) AND payroll_batch_id IS NULL AND is_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, uuidStrings(ids), batchID, reference)
	if err != nil {
		return 0, fmt.Errorf("failed to link assignments to batch %s: %w", batchID, err)
	}
	return result.RowsAffected(), nil
}

// MarkBatchPaid marks every assignment linked to a batch as paid
func (r *AssignmentRepository) MarkBatchPaid(ctx context.Context, batchID uuid.UUID, paidAt time.Time) (int64, error) {
	query := `
		UPDATE event_staff_assignments
		SET is_paid = TRUE, paid_at = $2, updated_at = NOW()
		WHERE payroll_batch_id = $1 AND is_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, batchID, paidAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark assignments paid for batch %s: %w", batchID, err)
	}
	return result.RowsAffected(), nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// dateOnly truncates to the UTC calendar date
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
