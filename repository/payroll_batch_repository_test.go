package repository

import (
	"context"
	"testing"
	"time"

	"crewpay/models"
	"crewpay/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(start time.Time, total float64) *models.PayrollBatch {
	return &models.PayrollBatch{
		PeriodStart:     start,
		PeriodEnd:       start.AddDate(0, 0, 6),
		PaymentDate:     start.AddDate(0, 0, 3),
		TotalAmount:     total,
		AssignmentCount: 2,
	}
}

func TestPayrollBatchRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPayrollBatchRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		batch, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, batch)
	})

	t.Run("create with generated id", func(t *testing.T) {
		batch := newTestBatch(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), 350)
		require.NoError(t, repo.Create(ctx, batch))
		assert.NotEqual(t, uuid.Nil, batch.ID)

		got, err := repo.GetByID(ctx, batch.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.PayrollBatchStatusDraft, got.Status)
		assert.Equal(t, 350.0, got.TotalAmount)
		assert.Equal(t, 2, got.AssignmentCount)
		assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), got.PeriodStart)
		assert.Equal(t, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), got.PeriodEnd)
		assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), got.PaymentDate)
		assert.Nil(t, got.PaidAt)
	})

	t.Run("period must span seven days", func(t *testing.T) {
		batch := newTestBatch(time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), 10)
		batch.PeriodEnd = batch.PeriodStart.AddDate(0, 0, 5)
		assert.Error(t, repo.Create(ctx, batch))
	})

	t.Run("mark paid once", func(t *testing.T) {
		batch := newTestBatch(time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), 100)
		batch.ID = uuid.New()
		require.NoError(t, repo.Create(ctx, batch))

		paidAt := time.Date(2024, 1, 24, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkPaid(ctx, batch.ID, paidAt))

		got, err := repo.GetByID(ctx, batch.ID)
		require.NoError(t, err)
		assert.True(t, got.IsPaid())
		require.NotNil(t, got.PaidAt)
		assert.True(t, paidAt.Equal(*got.PaidAt))

		err = repo.MarkPaid(ctx, batch.ID, paidAt)
		assert.ErrorIs(t, err, models.ErrBatchAlreadyPaid)
	})

	t.Run("list newest first", func(t *testing.T) {
		batches, err := repo.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.True(t, batches[0].PeriodStart.After(batches[1].PeriodStart))
	})
}
