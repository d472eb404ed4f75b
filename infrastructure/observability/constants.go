package observability

// Metric name prefixes
const (
	MetricPrefix = "crewpay"
)

// Metric names
const (
	// Payroll metrics
	PayrollBatchesCreatedTotal = MetricPrefix + ".payroll.batches_created_total"
	PayrollBatchesPaidTotal    = MetricPrefix + ".payroll.batches_paid_total"
	PayrollAmountPaidTotal     = MetricPrefix + ".payroll.amount_paid_total"
	PayrollAssignmentsPaid     = MetricPrefix + ".payroll.assignments_paid_total"

	// Roster metrics
	RosterSyncOutcomesTotal = MetricPrefix + ".roster.sync_outcomes_total"
)

// Label keys
const (
	LabelOutcome = "outcome"
	LabelReason  = "reason"
)

// Roster sync outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeDeleted = "deleted"
	OutcomeSkipped = "skipped"
)
