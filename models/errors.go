package models

import "errors"

var (
	// ErrNoEligibleAssignments is returned when a payroll period has nothing to pay
	ErrNoEligibleAssignments = errors.New("no eligible assignments for payroll period")

	// ErrBatchNotFound is returned when a payroll batch does not exist
	ErrBatchNotFound = errors.New("payroll batch not found")

	// ErrBatchAlreadyPaid is returned when processing a batch that is already paid
	ErrBatchAlreadyPaid = errors.New("payroll batch already paid")

	// ErrBatchConflict is returned when another run linked an assignment first
	ErrBatchConflict = errors.New("assignments were linked to another payroll batch")

	// ErrDuplicateAssignment is returned when a role already has an assignment for the event
	ErrDuplicateAssignment = errors.New("assignment already exists for event role")

	// ErrAssignmentNotFound is returned when an assignment does not exist
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrEventNotFound is returned when an event does not exist
	ErrEventNotFound = errors.New("event not found")

	// ErrAssignmentLocked is returned when changing pay on an assignment already batched or paid
	ErrAssignmentLocked = errors.New("assignment is already in a payroll batch")

	// ErrUnknownRateModel is returned when a rule names a rate model outside the closed set
	ErrUnknownRateModel = errors.New("unknown rate model")
)
