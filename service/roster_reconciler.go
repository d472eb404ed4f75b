package service

import (
	"context"
	"errors"
	"sort"

	"crewpay/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// StaffValidator reports whether a staff member exists
type StaffValidator func(ctx context.Context, staffID uuid.UUID) (bool, error)

// ReconcileRequest is one positions-grid save for an event
type ReconcileRequest struct {
	EventID       uuid.UUID
	Desired       models.PositionSelection
	Current       []*models.EventStaffAssignment
	Context       models.CompensationContext
	Rules         *RuleSet
	ValidateStaff StaffValidator
}

// RosterReconciler turns a positions grid into assignment writes so that
// each (event, role) ends with at most one assignment
type RosterReconciler struct {
	assignments AssignmentRepository
}

// NewRosterReconciler creates a reconciler writing through the given store
func NewRosterReconciler(assignments AssignmentRepository) *RosterReconciler {
	return &RosterReconciler{assignments: assignments}
}

// Reconcile diffs the desired grid against the current assignments and writes
// the difference. Roles are processed in sorted order and a failure on one
// role is recorded in the report without stopping the others.
func (r *RosterReconciler) Reconcile(ctx context.Context, req ReconcileRequest) *models.SyncReport {
	report := &models.SyncReport{EventID: req.EventID}

	desired := normalizeSelection(req.Desired)
	existing := indexByRole(req.Current, req.Rules)

	for _, role := range sortedRoles(desired) {
		staffID := desired[role]
		current := existing[role]
		label := req.Rules.LabelFor(role)

		logger := log.WithFields(log.Fields{
			"event_id": req.EventID,
			"role":     role,
		})

		if staffID == uuid.Nil {
			if current == nil {
				continue
			}
			if isLocked(current) {
				logger.Warn("Assignment is batched or paid, not deleting")
				report.Skipped = append(report.Skipped, lockedRole(role, label, models.SkipReasonDeleteFailed))
				continue
			}
			if err := r.assignments.Delete(ctx, current.ID); err != nil {
				logger.WithError(err).Warn("Failed to delete assignment")
				report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonDeleteFailed, err))
				continue
			}
			report.Deleted = append(report.Deleted, role)
			continue
		}

		exists, err := r.validate(ctx, req.ValidateStaff, staffID)
		if err != nil {
			logger.WithError(err).Warn("Failed to validate staff member")
			report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonValidateFailed, err))
			continue
		}
		if !exists {
			logger.WithField("staff_id", staffID).Warn("Staff member not found")
			report.Skipped = append(report.Skipped, models.SkippedRole{Role: role, Label: label, Reason: models.SkipReasonUserNotFound})
			continue
		}

		if current != nil {
			if current.StaffID == staffID {
				continue
			}
			if isLocked(current) {
				logger.Warn("Assignment is batched or paid, not restaffing")
				report.Skipped = append(report.Skipped, lockedRole(role, label, models.SkipReasonUpsertFailed))
				continue
			}
			if err := r.assignments.UpdateStaff(ctx, current.ID, staffID); err != nil {
				logger.WithError(err).Warn("Failed to update assignment")
				report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonUpsertFailed, err))
				continue
			}
			report.Updated = append(report.Updated, role)
			continue
		}

		r.create(ctx, report, req, role, label, staffID, logger)
	}

	return report
}

func (r *RosterReconciler) validate(ctx context.Context, validateStaff StaffValidator, staffID uuid.UUID) (bool, error) {
	if validateStaff == nil {
		return true, nil
	}
	return validateStaff(ctx, staffID)
}

// create inserts a new assignment. Losing a race to another writer for the
// same role falls back to updating the winner's row.
func (r *RosterReconciler) create(ctx context.Context, report *models.SyncReport, req ReconcileRequest, role models.RoleID, label string, staffID uuid.UUID, logger *log.Entry) {
	assignment := newAssignment(req, role, label, staffID)

	err := r.assignments.Create(ctx, assignment)
	if err == nil {
		report.Created = append(report.Created, role)
		return
	}
	if !errors.Is(err, models.ErrDuplicateAssignment) {
		logger.WithError(err).Warn("Failed to create assignment")
		report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonUpsertFailed, err))
		return
	}

	logger.Debug("Assignment created concurrently, retrying as update")

	winner, err := r.assignments.GetByEventAndRole(ctx, req.EventID, role)
	if err != nil {
		logger.WithError(err).Warn("Failed to reload assignment after duplicate create")
		report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonSelectError, err))
		return
	}
	if winner == nil {
		report.Skipped = append(report.Skipped, models.SkippedRole{
			Role:   role,
			Label:  label,
			Reason: models.SkipReasonCreateFailed,
			Detail: "assignment vanished after duplicate create",
		})
		return
	}

	if winner.StaffID != staffID {
		if isLocked(winner) {
			report.Skipped = append(report.Skipped, lockedRole(role, label, models.SkipReasonCreateFailed))
			return
		}
		if err := r.assignments.UpdateStaff(ctx, winner.ID, staffID); err != nil {
			logger.WithError(err).Warn("Failed to update assignment after duplicate create")
			report.Skipped = append(report.Skipped, skipped(role, label, models.SkipReasonCreateFailed, err))
			return
		}
	}
	report.Updated = append(report.Updated, role)
}

func newAssignment(req ReconcileRequest, role models.RoleID, label string, staffID uuid.UUID) *models.EventStaffAssignment {
	rule := req.Rules.GetRule(role)
	result := CalculateCompensation(rule, nil, req.Context)
	if result.NeedsRevenue {
		log.WithFields(log.Fields{
			"event_id": req.EventID,
			"role":     role,
		}).Warn("Percentage pay computed without event revenue")
	}

	total := result.Total
	assignment := &models.EventStaffAssignment{
		EventID:  req.EventID,
		Role:     label,
		RoleKey:  role,
		StaffID:  staffID,
		Status:   models.AssignmentStatusPending,
		PayType:  models.PayTypeFlat,
		PayRate:  result.Total,
		TotalPay: &total,
	}
	if rule != nil && rule.ID != nil {
		id := *rule.ID
		assignment.PayRateID = &id
	}
	return assignment
}

// normalizeSelection maps every key to its RoleID. When two keys collapse to
// the same role, the one sorting last wins.
func normalizeSelection(desired models.PositionSelection) map[models.RoleID]uuid.UUID {
	keys := make([]string, 0, len(desired))
	for key := range desired {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	out := make(map[models.RoleID]uuid.UUID, len(desired))
	for _, key := range keys {
		role := models.NormalizeRole(key)
		if role.IsZero() {
			continue
		}
		out[role] = desired[models.RoleID(key)]
	}
	return out
}

// indexByRole keeps the earliest assignment per role, matching rows to roles through the rule labels
func indexByRole(current []*models.EventStaffAssignment, rules *RuleSet) map[models.RoleID]*models.EventStaffAssignment {
	index := make(map[models.RoleID]*models.EventStaffAssignment, len(current))
	for _, a := range current {
		role := rules.RoleOf(a)
		if prev, ok := index[role]; ok && !a.CreatedAt.Before(prev.CreatedAt) {
			continue
		}
		index[role] = a
	}
	return index
}

func sortedRoles(desired map[models.RoleID]uuid.UUID) []models.RoleID {
	roles := make([]models.RoleID, 0, len(desired))
	for role := range desired {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

func skipped(role models.RoleID, label string, reason models.SkipReason, err error) models.SkippedRole {
	return models.SkippedRole{Role: role, Label: label, Reason: reason, Detail: err.Error()}
}

// isLocked reports whether an assignment already belongs to a payroll batch
func isLocked(a *models.EventStaffAssignment) bool {
	return a.IsPaid || a.PayrollBatchID != nil
}

func lockedRole(role models.RoleID, label string, reason models.SkipReason) models.SkippedRole {
	return models.SkippedRole{Role: role, Label: label, Reason: reason, Detail: "assignment locked"}
}
