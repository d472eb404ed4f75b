package repository

import (
	"context"
	"fmt"

	"crewpay/database"
	"crewpay/events"
	"crewpay/service"

	"github.com/jackc/pgx/v5"
)

const errNotStarted = "unit of work not started - call Begin() first"

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	assignmentRepo   service.AssignmentRepository
	payrollBatchRepo service.PayrollBatchRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.assignmentRepo = newAssignmentRepositoryWithTx(tx)
	u.payrollBatchRepo = newPayrollBatchRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes events queued during it
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}
	return nil
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}
	return nil
}

// AssignmentRepository returns the assignment repository for this unit of work
func (u *unitOfWork) AssignmentRepository() service.AssignmentRepository {
	if u.assignmentRepo == nil {
		panic(errNotStarted)
	}
	return u.assignmentRepo
}

// PayrollBatchRepository returns the payroll batch repository for this unit of work
func (u *unitOfWork) PayrollBatchRepository() service.PayrollBatchRepository {
	if u.payrollBatchRepo == nil {
		panic(errNotStarted)
	}
	return u.payrollBatchRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic(errNotStarted)
	}
	return u.transactionalBus
}
