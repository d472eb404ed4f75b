package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"crewpay/events"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type payrollMocks struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	assignments *MockAssignmentRepository
	batches     *MockPayrollBatchRepository
	publisher   *MockEventPublisher
}

func createTestPayrollService(now time.Time) (*payrollService, *payrollMocks) {
	m := &payrollMocks{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		assignments: new(MockAssignmentRepository),
		batches:     new(MockPayrollBatchRepository),
		publisher:   new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.assignments, m.batches, m.publisher)

	svc := NewPayrollService(m.factory).(*payrollService)
	svc.now = func() time.Time { return now }
	return svc, m
}

func setupBasicTransactionMocks(m *payrollMocks, ctx context.Context) {
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
}

func TestPayPeriodFor(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		start  time.Time
	}{
		{"wednesday", time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"sunday is the first day", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"saturday is the last day", time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"crosses a month", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)},
		{"uses the anchor's calendar date", time.Date(2024, 3, 9, 22, 0, 0, 0, time.FixedZone("PST", -8*3600)), time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period := PayPeriodFor(tt.anchor)
			assert.Equal(t, tt.start, period.Start)
			assert.Equal(t, tt.start.AddDate(0, 0, 6), period.End)
			assert.Equal(t, tt.start.AddDate(0, 0, 3), period.PaymentDate)
			assert.Equal(t, time.Sunday, period.Start.Weekday())
			assert.True(t, period.Contains(tt.anchor))
		})
	}
}

func TestPayrollService_CreateBatch(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)
	m.uow.On("Commit").Return(nil)

	total := 200.0
	first := &models.EventStaffAssignment{ID: uuid.New(), Status: models.AssignmentStatusConfirmed, PayRate: 180, TotalPay: &total}
	second := &models.EventStaffAssignment{ID: uuid.New(), Status: models.AssignmentStatusCompleted, PayRate: 150}

	start := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	m.assignments.On("List", ctx, mock.MatchedBy(func(f models.AssignmentFilter) bool {
		return f.IsPaid != nil && !*f.IsPaid &&
			f.Unbatched &&
			len(f.Statuses) == 2 &&
			f.EventDateFrom != nil && f.EventDateTo != nil &&
			f.EventDateFrom.Equal(start) &&
			f.EventDateTo.Equal(end)
	})).Return([]*models.EventStaffAssignment{first, second}, nil)

	var created *models.PayrollBatch
	m.batches.On("Create", ctx, mock.MatchedBy(func(b *models.PayrollBatch) bool {
		created = b
		return b.TotalAmount == 350 &&
			b.AssignmentCount == 2 &&
			b.Status == models.PayrollBatchStatusDraft &&
			b.PeriodStart.Equal(start) &&
			b.PeriodEnd.Equal(end) &&
			b.PaymentDate.Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	m.assignments.On("LinkToBatch", ctx, []uuid.UUID{first.ID, second.ID}, mock.Anything, mock.Anything).Return(int64(2), nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		payload, ok := e.(events.PayrollBatchCreatedEvent)
		return ok && payload.TotalAmount == 350 && payload.AssignmentCount == 2
	})).Return()

	batchID, err := svc.CreateBatch(ctx, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created.ID, batchID)
	assert.Equal(t, models.PaymentReferenceFor(batchID), created.PaymentReference)
	m.assignments.AssertCalled(t, "LinkToBatch", ctx, []uuid.UUID{first.ID, second.ID}, batchID, created.PaymentReference)
	m.uow.AssertExpectations(t)
	m.batches.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestPayrollService_CreateBatch_NoEligibleAssignments(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)

	m.assignments.On("List", ctx, mock.Anything).Return([]*models.EventStaffAssignment{}, nil)

	batchID, err := svc.CreateBatch(ctx, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, uuid.Nil, batchID)
	assert.ErrorIs(t, err, models.ErrNoEligibleAssignments)
	m.batches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.uow.AssertNotCalled(t, "Commit")
}

func TestPayrollService_CreateBatch_ConflictRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)

	a := &models.EventStaffAssignment{ID: uuid.New(), Status: models.AssignmentStatusConfirmed, PayRate: 100}
	b := &models.EventStaffAssignment{ID: uuid.New(), Status: models.AssignmentStatusConfirmed, PayRate: 100}
	m.assignments.On("List", ctx, mock.Anything).Return([]*models.EventStaffAssignment{a, b}, nil)
	m.batches.On("Create", ctx, mock.Anything).Return(nil)
	m.assignments.On("LinkToBatch", ctx, mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	_, err := svc.CreateBatch(ctx, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, err, models.ErrBatchConflict)
	m.uow.AssertNotCalled(t, "Commit")
	m.uow.AssertCalled(t, "Rollback")
	m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestPayrollService_CreateBatch_StoreError(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)

	m.assignments.On("List", ctx, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := svc.CreateBatch(ctx, time.Now())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNoEligibleAssignments)
}

func TestPayrollService_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)

	t.Run("draft to paid", func(t *testing.T) {
		svc, m := createTestPayrollService(now)
		setupBasicTransactionMocks(m, ctx)
		m.uow.On("Commit").Return(nil)

		batch := &models.PayrollBatch{ID: uuid.New(), Status: models.PayrollBatchStatusDraft, TotalAmount: 350}
		m.batches.On("GetByID", ctx, batch.ID).Return(batch, nil)
		m.batches.On("MarkPaid", ctx, batch.ID, now).Return(nil)
		m.assignments.On("MarkBatchPaid", ctx, batch.ID, now).Return(int64(2), nil)
		m.publisher.On("Publish", events.PayrollBatchPaidEvent{
			BatchID:         batch.ID,
			PaidAt:          now,
			AssignmentsPaid: 2,
			TotalAmount:     350,
		}).Return()

		require.NoError(t, svc.ProcessBatch(ctx, batch.ID))
		m.batches.AssertExpectations(t)
		m.assignments.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
		m.uow.AssertExpectations(t)
	})

	t.Run("already paid", func(t *testing.T) {
		svc, m := createTestPayrollService(now)
		setupBasicTransactionMocks(m, ctx)

		batch := &models.PayrollBatch{ID: uuid.New(), Status: models.PayrollBatchStatusPaid}
		m.batches.On("GetByID", ctx, batch.ID).Return(batch, nil)

		err := svc.ProcessBatch(ctx, batch.ID)
		assert.ErrorIs(t, err, models.ErrBatchAlreadyPaid)
		m.batches.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
		m.assignments.AssertNotCalled(t, "MarkBatchPaid", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := createTestPayrollService(now)
		setupBasicTransactionMocks(m, ctx)

		id := uuid.New()
		m.batches.On("GetByID", ctx, id).Return(nil, nil)

		err := svc.ProcessBatch(ctx, id)
		assert.ErrorIs(t, err, models.ErrBatchNotFound)
	})

	t.Run("processed batch is not reopened", func(t *testing.T) {
		svc, m := createTestPayrollService(now)
		setupBasicTransactionMocks(m, ctx)

		batch := &models.PayrollBatch{ID: uuid.New(), Status: models.PayrollBatchStatusProcessed}
		m.batches.On("GetByID", ctx, batch.ID).Return(batch, nil)

		err := svc.ProcessBatch(ctx, batch.ID)
		assert.Error(t, err)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("assignment update failure rolls back", func(t *testing.T) {
		svc, m := createTestPayrollService(now)
		setupBasicTransactionMocks(m, ctx)

		batch := &models.PayrollBatch{ID: uuid.New(), Status: models.PayrollBatchStatusDraft}
		m.batches.On("GetByID", ctx, batch.ID).Return(batch, nil)
		m.batches.On("MarkPaid", ctx, batch.ID, now).Return(nil)
		m.assignments.On("MarkBatchPaid", ctx, batch.ID, now).Return(int64(0), errors.New("deadlock"))

		err := svc.ProcessBatch(ctx, batch.ID)
		assert.Error(t, err)
		m.uow.AssertNotCalled(t, "Commit")
		m.uow.AssertCalled(t, "Rollback")
	})
}

func TestPayrollService_GetBatch(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)

	batch := &models.PayrollBatch{ID: uuid.New(), Status: models.PayrollBatchStatusDraft}
	linked := []*models.EventStaffAssignment{{ID: uuid.New(), PayrollBatchID: &batch.ID}}
	m.batches.On("GetByID", ctx, batch.ID).Return(batch, nil)
	m.assignments.On("List", ctx, models.AssignmentFilter{BatchID: &batch.ID}).Return(linked, nil)

	gotBatch, gotAssignments, err := svc.GetBatch(ctx, batch.ID)

	require.NoError(t, err)
	assert.Equal(t, batch, gotBatch)
	assert.Equal(t, linked, gotAssignments)
}

func TestPayrollService_ListBatches(t *testing.T) {
	ctx := context.Background()
	svc, m := createTestPayrollService(time.Now())
	setupBasicTransactionMocks(m, ctx)

	batches := []*models.PayrollBatch{{ID: uuid.New()}}
	m.batches.On("List", ctx, 10).Return(batches, nil)

	got, err := svc.ListBatches(ctx, 10)

	require.NoError(t, err)
	assert.Equal(t, batches, got)
}
