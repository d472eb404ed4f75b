package service

import (
	"context"
	"fmt"

	"crewpay/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type rosterService struct {
	assignments AssignmentRepository
	staff       StaffDirectory
	events      EventRepository
	catalog     *RateCatalog
	reconciler  *RosterReconciler
}

// NewRosterService creates a new roster service
func NewRosterService(assignments AssignmentRepository, staff StaffDirectory, events EventRepository, catalog *RateCatalog) RosterService {
	return &rosterService{
		assignments: assignments,
		staff:       staff,
		events:      events,
		catalog:     catalog,
		reconciler:  NewRosterReconciler(assignments),
	}
}

// SyncPositions reconciles the positions grid of an event into its assignments
func (s *rosterService) SyncPositions(ctx context.Context, eventID uuid.UUID, desired models.PositionSelection) (*models.SyncReport, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	current, err := s.assignments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	report := s.reconciler.Reconcile(ctx, ReconcileRequest{
		EventID:       eventID,
		Desired:       desired,
		Current:       current,
		Context:       event.CompensationContext(),
		Rules:         s.catalog.Load(ctx),
		ValidateStaff: s.staff.Exists,
	})

	entry := log.WithFields(log.Fields{
		"event_id": eventID,
		"created":  len(report.Created),
		"updated":  len(report.Updated),
		"deleted":  len(report.Deleted),
		"skipped":  len(report.Skipped),
	})
	if len(report.Skipped) > 0 {
		entry.Warn("Positions synced with skipped roles")
	} else {
		entry.Info("Positions synced")
	}

	return report, nil
}

// PositionsForEvent derives the positions grid from the persisted assignments
func (s *rosterService) PositionsForEvent(ctx context.Context, eventID uuid.UUID) (models.PositionSelection, error) {
	current, err := s.assignments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	positions := make(models.PositionSelection)
	for role, a := range indexByRole(current, s.catalog.Load(ctx)) {
		positions[role] = a.StaffID
	}
	return positions, nil
}

// ListAssignments returns the assignments of an event
func (s *rosterService) ListAssignments(ctx context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error) {
	assignments, err := s.assignments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	return assignments, nil
}

// UpdateCompensation recomputes pay for an assignment with the given override.
// An empty override clears any previous one and restores the rule's figure.
func (s *rosterService) UpdateCompensation(ctx context.Context, assignmentID uuid.UUID, override *models.CompensationOverride) (*models.EventStaffAssignment, *models.CompensationResult, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrAssignmentNotFound, assignmentID)
	}
	if isLocked(assignment) {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrAssignmentLocked, assignmentID)
	}

	event, err := s.loadEvent(ctx, assignment.EventID)
	if err != nil {
		return nil, nil, err
	}

	if override.IsEmpty() {
		override = nil
	}

	rules := s.catalog.Load(ctx)
	rule := rules.GetRule(rules.RoleOf(assignment))
	result := CalculateCompensation(rule, override, event.CompensationContext())
	if result.NeedsRevenue {
		log.WithFields(log.Fields{
			"assignment_id": assignmentID,
			"event_id":      assignment.EventID,
		}).Warn("Percentage pay computed without event revenue")
	}

	total := result.Total
	if err := s.assignments.UpdateCompensation(ctx, assignmentID, result.Total, &total, override); err != nil {
		return nil, nil, fmt.Errorf("failed to update compensation: %w", err)
	}

	assignment.PayRate = result.Total
	assignment.TotalPay = &total
	assignment.CompensationConfig = override

	log.WithFields(log.Fields{
		"assignment_id": assignmentID,
		"total":         result.Total,
		"breakdown":     result.Breakdown,
	}).Info("Assignment compensation updated")

	return assignment, &result, nil
}

func (s *rosterService) loadEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrEventNotFound, eventID)
	}
	return event, nil
}
