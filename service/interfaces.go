package service

import (
	"context"
	"time"

	"crewpay/events"
	"crewpay/models"

	"github.com/google/uuid"
)

// StaffDirectory defines the interface for staff lookups
type StaffDirectory interface {
	// Exists reports whether a staff member with the given ID exists
	Exists(ctx context.Context, staffID uuid.UUID) (bool, error)

	// List returns all staff members ordered by name
	List(ctx context.Context) ([]*models.StaffMember, error)
}

// EventRepository defines the interface for event lookups
type EventRepository interface {
	// GetByID retrieves an event, returning nil when it does not exist
	GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error)

	// GetEventDate returns the date an event takes place
	GetEventDate(ctx context.Context, eventID uuid.UUID) (time.Time, error)
}

// AssignmentRepository defines the interface for event staff assignment data access
type AssignmentRepository interface {
	// ListByEvent returns all assignments for an event
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error)

	// GetByID retrieves an assignment, returning nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.EventStaffAssignment, error)

	// GetByEventAndRole retrieves the assignment for a role, returning nil when there is none
	GetByEventAndRole(ctx context.Context, eventID uuid.UUID, role models.RoleID) (*models.EventStaffAssignment, error)

	// Create inserts an assignment, returning models.ErrDuplicateAssignment when the role is taken
	Create(ctx context.Context, assignment *models.EventStaffAssignment) error

	// UpdateStaff changes only the staffer of an assignment
	UpdateStaff(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error

	// UpdateCompensation stores recomputed pay and the override that produced it
	UpdateCompensation(ctx context.Context, id uuid.UUID, payRate float64, totalPay *float64, config *models.CompensationOverride) error

	// Delete removes an assignment
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns assignments matching the filter
	List(ctx context.Context, filter models.AssignmentFilter) ([]*models.EventStaffAssignment, error)

	// LinkToBatch links still-unbatched assignments to a payroll batch and returns how many were linked
	LinkToBatch(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID, reference string) (int64, error)

	// MarkBatchPaid marks every assignment of a batch as paid and returns how many changed
	MarkBatchPaid(ctx context.Context, batchID uuid.UUID, paidAt time.Time) (int64, error)
}

// PayRateRuleRepository defines the interface for the pay rate rule store
type PayRateRuleRepository interface {
	// ListRules returns all stored rules
	ListRules(ctx context.Context) ([]*models.PayRateRule, error)

	// Upsert creates or replaces the rule for a position key
	Upsert(ctx context.Context, rule *models.PayRateRule) error
}

// PayrollBatchRepository defines the interface for payroll batch data access
type PayrollBatchRepository interface {
	// Create inserts a batch
	Create(ctx context.Context, batch *models.PayrollBatch) error

	// GetByID retrieves a batch, returning nil when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.PayrollBatch, error)

	// List returns the most recent batches
	List(ctx context.Context, limit int) ([]*models.PayrollBatch, error)

	// MarkPaid moves a draft batch to paid
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

// DefaultRuleProvider supplies the built-in pay rate rules
type DefaultRuleProvider interface {
	DefaultRules() []*models.PayRateRule
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// RosterService defines the interface for keeping an event roster in sync with its editors
type RosterService interface {
	// SyncPositions reconciles the positions grid into the persisted assignments
	SyncPositions(ctx context.Context, eventID uuid.UUID, desired models.PositionSelection) (*models.SyncReport, error)

	// PositionsForEvent derives the positions grid from the persisted assignments
	PositionsForEvent(ctx context.Context, eventID uuid.UUID) (models.PositionSelection, error)

	// ListAssignments returns the assignment list for an event
	ListAssignments(ctx context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error)

	// UpdateCompensation recomputes an assignment's pay with the given override and stores it
	UpdateCompensation(ctx context.Context, assignmentID uuid.UUID, override *models.CompensationOverride) (*models.EventStaffAssignment, *models.CompensationResult, error)
}

// PayrollService defines the interface for payroll batch operations
type PayrollService interface {
	// CreateBatch groups the eligible assignments of the week containing anchor into a draft batch
	CreateBatch(ctx context.Context, anchor time.Time) (uuid.UUID, error)

	// ProcessBatch marks a batch and all of its assignments as paid
	ProcessBatch(ctx context.Context, batchID uuid.UUID) error

	// GetBatch returns a batch with its linked assignments
	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.PayrollBatch, []*models.EventStaffAssignment, error)

	// ListBatches returns the most recent batches
	ListBatches(ctx context.Context, limit int) ([]*models.PayrollBatch, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AssignmentRepository() AssignmentRepository
	PayrollBatchRepository() PayrollBatchRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
