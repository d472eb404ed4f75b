package service

import (
	"context"
	"time"

	"crewpay/events"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAssignmentRepository is a mock implementation of AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventStaffAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EventStaffAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventStaffAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetByEventAndRole(ctx context.Context, eventID uuid.UUID, role models.RoleID) (*models.EventStaffAssignment, error) {
	args := m.Called(ctx, eventID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventStaffAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.EventStaffAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) UpdateStaff(ctx context.Context, id uuid.UUID, staffID uuid.UUID) error {
	args := m.Called(ctx, id, staffID)
	return args.Error(0)
}

func (m *MockAssignmentRepository) UpdateCompensation(ctx context.Context, id uuid.UUID, payRate float64, totalPay *float64, config *models.CompensationOverride) error {
	args := m.Called(ctx, id, payRate, totalPay, config)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]*models.EventStaffAssignment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EventStaffAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) LinkToBatch(ctx context.Context, ids []uuid.UUID, batchID uuid.UUID, reference string) (int64, error) {
	args := m.Called(ctx, ids, batchID, reference)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) MarkBatchPaid(ctx context.Context, batchID uuid.UUID, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, batchID, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

// MockPayrollBatchRepository is a mock implementation of PayrollBatchRepository
type MockPayrollBatchRepository struct {
	mock.Mock
}

func (m *MockPayrollBatchRepository) Create(ctx context.Context, batch *models.PayrollBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockPayrollBatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PayrollBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollBatch), args.Error(1)
}

func (m *MockPayrollBatchRepository) List(ctx context.Context, limit int) ([]*models.PayrollBatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayrollBatch), args.Error(1)
}

func (m *MockPayrollBatchRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

// MockPayRateRuleRepository is a mock implementation of PayRateRuleRepository
type MockPayRateRuleRepository struct {
	mock.Mock
}

func (m *MockPayRateRuleRepository) ListRules(ctx context.Context) ([]*models.PayRateRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayRateRule), args.Error(1)
}

func (m *MockPayRateRuleRepository) Upsert(ctx context.Context, rule *models.PayRateRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// MockStaffDirectory is a mock implementation of StaffDirectory
type MockStaffDirectory struct {
	mock.Mock
}

func (m *MockStaffDirectory) Exists(ctx context.Context, staffID uuid.UUID) (bool, error) {
	args := m.Called(ctx, staffID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStaffDirectory) List(ctx context.Context) ([]*models.StaffMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StaffMember), args.Error(1)
}

// MockEventRepository is a mock implementation of EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventRepository) GetEventDate(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock
	assignmentRepo   AssignmentRepository
	payrollBatchRepo PayrollBatchRepository
	eventBus         EventPublisher
}

// SetRepositories installs the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(assignments AssignmentRepository, batches PayrollBatchRepository, bus EventPublisher) {
	m.assignmentRepo = assignments
	m.payrollBatchRepo = batches
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AssignmentRepository() AssignmentRepository {
	return m.assignmentRepo
}

func (m *MockUnitOfWork) PayrollBatchRepository() PayrollBatchRepository {
	return m.payrollBatchRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
