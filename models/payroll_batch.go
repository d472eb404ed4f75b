package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PayrollBatchStatus represents the state of a payroll batch
type PayrollBatchStatus string

const (
	PayrollBatchStatusDraft     PayrollBatchStatus = "draft"
	PayrollBatchStatusProcessed PayrollBatchStatus = "processed"
	PayrollBatchStatusPaid      PayrollBatchStatus = "paid"
)

// PayrollBatch groups one week of payable assignments
type PayrollBatch struct {
	ID               uuid.UUID          `db:"id"`
	PeriodStart      time.Time          `db:"period_start"`
	PeriodEnd        time.Time          `db:"period_end"`
	PaymentDate      time.Time          `db:"payment_date"`
	TotalAmount      float64            `db:"total_amount"`
	AssignmentCount  int                `db:"assignment_count"`
	Status           PayrollBatchStatus `db:"status"`
	PaymentReference string             `db:"payment_reference"`
	CreatedAt        time.Time          `db:"created_at"`
	PaidAt           *time.Time         `db:"paid_at"`
}

// IsPaid returns true once the batch has been processed
func (b *PayrollBatch) IsPaid() bool {
	return b.Status == PayrollBatchStatusPaid
}

// CanProcess reports whether the batch may transition to paid
func (b *PayrollBatch) CanProcess() bool {
	return b.Status == PayrollBatchStatusDraft
}

// PayPeriod is a Sunday-Saturday payroll week
type PayPeriod struct {
	Start       time.Time
	End         time.Time
	PaymentDate time.Time
}

// Contains reports whether the date falls inside the period, inclusive
func (p PayPeriod) Contains(date time.Time) bool {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(p.Start) && !d.After(p.End)
}

// PaymentReferenceFor derives the reference stamped on every assignment of a batch
func PaymentReferenceFor(batchID uuid.UUID) string {
	return "PAYROLL-" + strings.ToUpper(strings.ReplaceAll(batchID.String(), "-", "")[:12])
}
