package service

import (
	"context"
	"fmt"
	"time"

	"crewpay/events"
	"crewpay/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var payableStatuses = []models.AssignmentStatus{
	models.AssignmentStatusConfirmed,
	models.AssignmentStatusCompleted,
}

type payrollService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewPayrollService creates a new payroll service
func NewPayrollService(uowFactory UnitOfWorkFactory) PayrollService {
	return &payrollService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// CreateBatch groups the eligible assignments of the week containing anchor
// into a draft batch. Nothing is written when the week has nothing to pay.
func (s *payrollService) CreateBatch(ctx context.Context, anchor time.Time) (uuid.UUID, error) {
	period := PayPeriodFor(anchor)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	unpaid := false
	candidates, err := uow.AssignmentRepository().List(ctx, models.AssignmentFilter{
		IsPaid:        &unpaid,
		Statuses:      payableStatuses,
		Unbatched:     true,
		EventDateFrom: &period.Start,
		EventDateTo:   &period.End,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list eligible assignments: %w", err)
	}
	if len(candidates) == 0 {
		return uuid.Nil, fmt.Errorf("%w: %s to %s", models.ErrNoEligibleAssignments,
			period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	total := 0.0
	for _, a := range candidates {
		ids = append(ids, a.ID)
		total += a.Payout()
	}

	batch := &models.PayrollBatch{
		ID:              uuid.New(),
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		PaymentDate:     period.PaymentDate,
		TotalAmount:     roundCurrency(total),
		AssignmentCount: len(ids),
		Status:          models.PayrollBatchStatusDraft,
	}
	batch.PaymentReference = models.PaymentReferenceFor(batch.ID)

	if err := uow.PayrollBatchRepository().Create(ctx, batch); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	linked, err := uow.AssignmentRepository().LinkToBatch(ctx, ids, batch.ID, batch.PaymentReference)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to link assignments: %w", err)
	}
	if linked != int64(len(ids)) {
		return uuid.Nil, fmt.Errorf("%w: linked %d of %d", models.ErrBatchConflict, linked, len(ids))
	}

	uow.EventBus().Publish(events.PayrollBatchCreatedEvent{
		BatchID:          batch.ID,
		PeriodStart:      batch.PeriodStart,
		PeriodEnd:        batch.PeriodEnd,
		PaymentDate:      batch.PaymentDate,
		TotalAmount:      batch.TotalAmount,
		AssignmentCount:  batch.AssignmentCount,
		PaymentReference: batch.PaymentReference,
	})

	if err := uow.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"batch_id":     batch.ID,
		"period_start": period.Start.Format("2006-01-02"),
		"assignments":  batch.AssignmentCount,
		"total":        batch.TotalAmount,
	}).Info("Payroll batch created")

	return batch.ID, nil
}

// ProcessBatch marks a draft batch and every assignment in it as paid
func (s *payrollService) ProcessBatch(ctx context.Context, batchID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	batch, err := uow.PayrollBatchRepository().GetByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to get payroll batch: %w", err)
	}
	if batch == nil {
		return fmt.Errorf("%w: %s", models.ErrBatchNotFound, batchID)
	}
	if batch.IsPaid() {
		return fmt.Errorf("%w: %s", models.ErrBatchAlreadyPaid, batchID)
	}
	if !batch.CanProcess() {
		return fmt.Errorf("payroll batch %s cannot be processed in status %s", batchID, batch.Status)
	}

	paidAt := s.now().UTC()
	if err := uow.PayrollBatchRepository().MarkPaid(ctx, batchID, paidAt); err != nil {
		return fmt.Errorf("failed to mark payroll batch paid: %w", err)
	}

	count, err := uow.AssignmentRepository().MarkBatchPaid(ctx, batchID, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark assignments paid: %w", err)
	}

	uow.EventBus().Publish(events.PayrollBatchPaidEvent{
		BatchID:          batchID,
		PaidAt:           paidAt,
		AssignmentsPaid:  count,
		TotalAmount:      batch.TotalAmount,
		PaymentReference: batch.PaymentReference,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"batch_id":    batchID,
		"assignments": count,
	}).Info("Payroll batch processed")

	return nil
}

// GetBatch returns a batch and its linked assignments
func (s *payrollService) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.PayrollBatch, []*models.EventStaffAssignment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	batch, err := uow.PayrollBatchRepository().GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get payroll batch: %w", err)
	}
	if batch == nil {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrBatchNotFound, batchID)
	}

	assignments, err := uow.AssignmentRepository().List(ctx, models.AssignmentFilter{BatchID: &batchID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list batch assignments: %w", err)
	}

	return batch, assignments, nil
}

// ListBatches returns the most recent batches
func (s *payrollService) ListBatches(ctx context.Context, limit int) ([]*models.PayrollBatch, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	batches, err := uow.PayrollBatchRepository().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll batches: %w", err)
	}
	return batches, nil
}
