package models

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus represents the state of a staff assignment
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusDeclined  AssignmentStatus = "declined"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

// PayTypeFlat is the pay type stamped on assignments created from the positions grid
const PayTypeFlat = "flat"

// EventStaffAssignment is one staffer filling one role at one event
type EventStaffAssignment struct {
	ID                 uuid.UUID             `db:"id"`
	EventID            uuid.UUID             `db:"event_id"`
	Role               string                `db:"role"`
	RoleKey            RoleID                `db:"role_key"`
	StaffID            uuid.UUID             `db:"staff_id"`
	Status             AssignmentStatus      `db:"status"`
	PayType            string                `db:"pay_type"`
	PayRate            float64               `db:"pay_rate"`
	TotalPay           *float64              `db:"total_pay"`
	CompensationConfig *CompensationOverride `db:"compensation_config"`
	PayRateID          *uuid.UUID            `db:"pay_rate_id"`
	IsPaid             bool                  `db:"is_paid"`
	PaidAt             *time.Time            `db:"paid_at"`
	PayrollBatchID     *uuid.UUID            `db:"payroll_batch_id"`
	PaymentReference   *string               `db:"payment_reference"`
	CreatedAt          time.Time             `db:"created_at"`
	UpdatedAt          time.Time             `db:"updated_at"`
}

// Payout returns the amount owed: total pay, or the pay rate when no total was recorded
func (a *EventStaffAssignment) Payout() float64 {
	if a.TotalPay != nil {
		return *a.TotalPay
	}
	return a.PayRate
}

// IsPayrollEligible reports whether the assignment can join a new payroll batch
func (a *EventStaffAssignment) IsPayrollEligible() bool {
	if a.IsPaid || a.PayrollBatchID != nil {
		return false
	}
	return a.Status == AssignmentStatusConfirmed || a.Status == AssignmentStatusCompleted
}

// RoleID returns the canonical role, normalizing the label for rows written before role_key existed
func (a *EventStaffAssignment) RoleID() RoleID {
	if a.RoleKey != "" {
		return a.RoleKey
	}
	return NormalizeRole(a.Role)
}

// AssignmentFilter selects assignments. Zero-valued fields do not filter.
type AssignmentFilter struct {
	EventID       *uuid.UUID
	IsPaid        *bool
	Statuses      []AssignmentStatus
	BatchID       *uuid.UUID
	Unbatched     bool
	EventDateFrom *time.Time
	EventDateTo   *time.Time
}

// PositionSelection is the positions grid: role -> staffer, uuid.Nil meaning unassigned
type PositionSelection map[RoleID]uuid.UUID
