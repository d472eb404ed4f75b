package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crewpay/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestRosterService() (RosterService, *MockAssignmentRepository, *MockStaffDirectory, *MockEventRepository, *MockPayRateRuleRepository) {
	assignments := new(MockAssignmentRepository)
	staff := new(MockStaffDirectory)
	events := new(MockEventRepository)
	rules := new(MockPayRateRuleRepository)

	defaults := staticRules{
		{PositionKey: "server", PositionLabel: "Server", Model: models.FlatRate{Amount: 180}},
		{PositionKey: "operator_1", PositionLabel: "Operator 1", Model: models.PercentRevenueRate{Percentage: 8}},
		{PositionKey: "operator_2", PositionLabel: "Operator 2", Model: models.TieredHoursRate{BaseHours: 6, BaseAmount: 600, OvertimeRate: 50}},
	}

	svc := NewRosterService(assignments, staff, events, NewRateCatalog(rules, defaults))
	return svc, assignments, staff, events, rules
}

func testEvent(revenue, hours float64) *models.Event {
	return &models.Event{
		ID:            uuid.New(),
		Name:          "Spring Gala",
		EventDate:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		RevenuePreTax: revenue,
		DurationHours: hours,
	}
}

func TestRosterService_SyncPositions(t *testing.T) {
	ctx := context.Background()
	svc, assignments, staff, events, rules := createTestRosterService()

	event := testEvent(5000, 6)
	alice := uuid.New()

	events.On("GetByID", ctx, event.ID).Return(event, nil)
	assignments.On("ListByEvent", ctx, event.ID).Return([]*models.EventStaffAssignment{}, nil)
	rules.On("ListRules", ctx).Return([]*models.PayRateRule{}, nil)
	staff.On("Exists", ctx, alice).Return(true, nil)
	assignments.On("Create", ctx, mock.MatchedBy(func(a *models.EventStaffAssignment) bool {
		return a.EventID == event.ID &&
			a.RoleKey == "operator_1" &&
			a.Role == "Operator 1" &&
			a.StaffID == alice &&
			a.PayRate == 400
	})).Return(nil)

	report, err := svc.SyncPositions(ctx, event.ID, models.PositionSelection{"Operator 1": alice})

	require.NoError(t, err)
	assert.Equal(t, []models.RoleID{"operator_1"}, report.Created)
	assignments.AssertExpectations(t)
	staff.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestRosterService_SyncPositions_EventNotFound(t *testing.T) {
	ctx := context.Background()
	svc, assignments, _, events, _ := createTestRosterService()
	eventID := uuid.New()

	events.On("GetByID", ctx, eventID).Return(nil, nil)

	report, err := svc.SyncPositions(ctx, eventID, models.PositionSelection{"server": uuid.New()})

	assert.Nil(t, report)
	assert.ErrorIs(t, err, models.ErrEventNotFound)
	assignments.AssertNotCalled(t, "ListByEvent", mock.Anything, mock.Anything)
}

func TestRosterService_SyncPositions_ListFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	svc, assignments, _, events, _ := createTestRosterService()
	event := testEvent(0, 0)

	events.On("GetByID", ctx, event.ID).Return(event, nil)
	assignments.On("ListByEvent", ctx, event.ID).Return(nil, errors.New("connection reset"))

	report, err := svc.SyncPositions(ctx, event.ID, models.PositionSelection{"server": uuid.New()})

	assert.Nil(t, report)
	assert.Error(t, err)
	assignments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRosterService_PositionsForEvent(t *testing.T) {
	ctx := context.Background()
	svc, assignments, _, _, rules := createTestRosterService()
	eventID := uuid.New()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	rules.On("ListRules", ctx).Return([]*models.PayRateRule{
		{PositionKey: "operator_1", PositionLabel: "Lead Operator", Model: models.FlatRate{Amount: 300}},
	}, nil)
	assignments.On("ListByEvent", ctx, eventID).Return([]*models.EventStaffAssignment{
		{ID: uuid.New(), EventID: eventID, RoleKey: "server", StaffID: alice},
		{ID: uuid.New(), EventID: eventID, Role: "Box Prep", StaffID: bob},
		{ID: uuid.New(), EventID: eventID, Role: "lead operator", StaffID: carol},
	}, nil)

	positions, err := svc.PositionsForEvent(ctx, eventID)

	require.NoError(t, err)
	assert.Equal(t, models.PositionSelection{"server": alice, "box_prep": bob, "operator_1": carol}, positions)
}

func TestRosterService_UpdateCompensation(t *testing.T) {
	ctx := context.Background()

	t.Run("override recomputes pay", func(t *testing.T) {
		svc, assignments, _, events, rules := createTestRosterService()
		event := testEvent(0, 6)
		assignment := &models.EventStaffAssignment{ID: uuid.New(), EventID: event.ID, RoleKey: "operator_2", PayRate: 600}
		override := &models.CompensationOverride{Overrides: map[string]float64{models.ParamHours: 8}}

		assignments.On("GetByID", ctx, assignment.ID).Return(assignment, nil)
		events.On("GetByID", ctx, event.ID).Return(event, nil)
		rules.On("ListRules", ctx).Return([]*models.PayRateRule{}, nil)
		assignments.On("UpdateCompensation", ctx, assignment.ID, 700.0, mock.MatchedBy(func(total *float64) bool {
			return total != nil && *total == 700
		}), override).Return(nil)

		updated, result, err := svc.UpdateCompensation(ctx, assignment.ID, override)

		require.NoError(t, err)
		assert.Equal(t, 700.0, result.Total)
		assert.Equal(t, 700.0, updated.PayRate)
		assert.Equal(t, override, updated.CompensationConfig)
		assignments.AssertExpectations(t)
	})

	t.Run("manual total", func(t *testing.T) {
		svc, assignments, _, events, rules := createTestRosterService()
		event := testEvent(0, 0)
		assignment := &models.EventStaffAssignment{ID: uuid.New(), EventID: event.ID, RoleKey: "server"}
		manual := 200.0
		override := &models.CompensationOverride{ManualTotal: &manual}

		assignments.On("GetByID", ctx, assignment.ID).Return(assignment, nil)
		events.On("GetByID", ctx, event.ID).Return(event, nil)
		rules.On("ListRules", ctx).Return(nil, errors.New("store down"))
		assignments.On("UpdateCompensation", ctx, assignment.ID, 200.0, mock.Anything, override).Return(nil)

		_, result, err := svc.UpdateCompensation(ctx, assignment.ID, override)

		require.NoError(t, err)
		assert.Equal(t, 200.0, result.Total)
	})

	t.Run("empty override is cleared", func(t *testing.T) {
		svc, assignments, _, events, rules := createTestRosterService()
		event := testEvent(0, 0)
		assignment := &models.EventStaffAssignment{ID: uuid.New(), EventID: event.ID, RoleKey: "server"}

		assignments.On("GetByID", ctx, assignment.ID).Return(assignment, nil)
		events.On("GetByID", ctx, event.ID).Return(event, nil)
		rules.On("ListRules", ctx).Return([]*models.PayRateRule{}, nil)
		assignments.On("UpdateCompensation", ctx, assignment.ID, 180.0, mock.Anything, (*models.CompensationOverride)(nil)).Return(nil)

		updated, _, err := svc.UpdateCompensation(ctx, assignment.ID, &models.CompensationOverride{})

		require.NoError(t, err)
		assert.Nil(t, updated.CompensationConfig)
	})

	t.Run("percentage without revenue flags the result", func(t *testing.T) {
		svc, assignments, _, events, rules := createTestRosterService()
		event := testEvent(0, 0)
		assignment := &models.EventStaffAssignment{ID: uuid.New(), EventID: event.ID, RoleKey: "operator_1"}

		assignments.On("GetByID", ctx, assignment.ID).Return(assignment, nil)
		events.On("GetByID", ctx, event.ID).Return(event, nil)
		rules.On("ListRules", ctx).Return([]*models.PayRateRule{}, nil)
		assignments.On("UpdateCompensation", ctx, assignment.ID, 0.0, mock.Anything, (*models.CompensationOverride)(nil)).Return(nil)

		_, result, err := svc.UpdateCompensation(ctx, assignment.ID, nil)

		require.NoError(t, err)
		assert.True(t, result.NeedsRevenue)
	})

	t.Run("not found", func(t *testing.T) {
		svc, assignments, _, _, _ := createTestRosterService()
		id := uuid.New()
		assignments.On("GetByID", ctx, id).Return(nil, nil)

		_, _, err := svc.UpdateCompensation(ctx, id, nil)
		assert.ErrorIs(t, err, models.ErrAssignmentNotFound)
	})

	t.Run("batched assignment is locked", func(t *testing.T) {
		svc, assignments, _, _, _ := createTestRosterService()
		batchID := uuid.New()
		assignment := &models.EventStaffAssignment{ID: uuid.New(), EventID: uuid.New(), RoleKey: "server", PayrollBatchID: &batchID}
		assignments.On("GetByID", ctx, assignment.ID).Return(assignment, nil)

		_, _, err := svc.UpdateCompensation(ctx, assignment.ID, nil)
		assert.ErrorIs(t, err, models.ErrAssignmentLocked)
		assignments.AssertNotCalled(t, "UpdateCompensation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
