package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crewpay/models"

	"github.com/google/uuid"
)

// memoryAssignmentStore is an in-memory AssignmentRepository that enforces
// one assignment per (event, role) like the database constraint does
type memoryAssignmentStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.EventStaffAssignment
	tick time.Time

	failCreate map[models.RoleID]error
	failUpdate map[models.RoleID]error
	failDelete map[models.RoleID]error
	failLookup map[models.RoleID]error
	hideLookup map[models.RoleID]bool
}

func newMemoryAssignmentStore() *memoryAssignmentStore {
	return &memoryAssignmentStore{
		rows:       make(map[uuid.UUID]*models.EventStaffAssignment),
		tick:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failCreate: make(map[models.RoleID]error),
		failUpdate: make(map[models.RoleID]error),
		failDelete: make(map[models.RoleID]error),
		failLookup: make(map[models.RoleID]error),
		hideLookup: make(map[models.RoleID]bool),
	}
}

func (s *memoryAssignmentStore) copyOf(a *models.EventStaffAssignment) *models.EventStaffAssignment {
	c := *a
	return &c
}

// seed inserts a row directly, bypassing failure injection
func (s *memoryAssignmentStore) seed(eventID uuid.UUID, role models.RoleID, staffID uuid.UUID) *models.EventStaffAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick = s.tick.Add(time.Second)
	a := &models.EventStaffAssignment{
		ID:        uuid.New(),
		EventID:   eventID,
		Role:      role.DefaultLabel(),
		RoleKey:   role,
		StaffID:   staffID,
		Status:    models.AssignmentStatusPending,
		PayType:   models.PayTypeFlat,
		CreatedAt: s.tick,
		UpdatedAt: s.tick,
	}
	s.rows[a.ID] = a
	return s.copyOf(a)
}

// seedWith inserts a seeded row after letting mutate adjust it
func (s *memoryAssignmentStore) seedWith(eventID uuid.UUID, role models.RoleID, staffID uuid.UUID, mutate func(a *models.EventStaffAssignment)) *models.EventStaffAssignment {
	seeded := s.seed(eventID, role, staffID)

	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.rows[seeded.ID]
	mutate(a)
	return s.copyOf(a)
}

func (s *memoryAssignmentStore) count(eventID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.rows {
		if a.EventID == eventID {
			n++
		}
	}
	return n
}

func (s *memoryAssignmentStore) countByRole(eventID uuid.UUID) map[models.RoleID]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.RoleID]int)
	for _, a := range s.rows {
		if a.EventID == eventID {
			counts[a.RoleID()]++
		}
	}
	return counts
}

func (s *memoryAssignmentStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*models.EventStaffAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.EventStaffAssignment
	for _, a := range s.rows {
		if a.EventID == eventID {
			out = append(out, s.copyOf(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoleKey < out[j].RoleKey })
	return out, nil
}

func (s *memoryAssignmentStore) GetByID(_ context.Context, id uuid.UUID) (*models.EventStaffAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.rows[id]; ok {
		return s.copyOf(a), nil
	}
	return nil, nil
}

func (s *memoryAssignmentStore) GetByEventAndRole(_ context.Context, eventID uuid.UUID, role models.RoleID) (*models.EventStaffAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failLookup[role]; err != nil {
		return nil, err
	}
	if s.hideLookup[role] {
		return nil, nil
	}
	for _, a := range s.rows {
		if a.EventID == eventID && a.RoleID() == role {
			return s.copyOf(a), nil
		}
	}
	return nil, nil
}

func (s *memoryAssignmentStore) Create(_ context.Context, a *models.EventStaffAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failCreate[a.RoleKey]; err != nil {
		return err
	}
	for _, existing := range s.rows {
		if existing.EventID == a.EventID && existing.RoleID() == a.RoleKey {
			return fmt.Errorf("%w: %s", models.ErrDuplicateAssignment, a.RoleKey)
		}
	}

	s.tick = s.tick.Add(time.Second)
	a.ID = uuid.New()
	a.CreatedAt = s.tick
	a.UpdatedAt = s.tick
	s.rows[a.ID] = s.copyOf(a)
	return nil
}

func (s *memoryAssignmentStore) UpdateStaff(_ context.Context, id uuid.UUID, staffID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return models.ErrAssignmentNotFound
	}
	if err := s.failUpdate[a.RoleID()]; err != nil {
		return err
	}
	if a.IsPaid || a.PayrollBatchID != nil {
		return models.ErrAssignmentLocked
	}
	a.StaffID = staffID
	return nil
}

func (s *memoryAssignmentStore) UpdateCompensation(_ context.Context, id uuid.UUID, payRate float64, totalPay *float64, config *models.CompensationOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return models.ErrAssignmentNotFound
	}
	if a.IsPaid || a.PayrollBatchID != nil {
		return models.ErrAssignmentLocked
	}
	a.PayRate = payRate
	a.TotalPay = totalPay
	a.CompensationConfig = config
	return nil
}

func (s *memoryAssignmentStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return models.ErrAssignmentNotFound
	}
	if err := s.failDelete[a.RoleID()]; err != nil {
		return err
	}
	if a.IsPaid || a.PayrollBatchID != nil {
		return models.ErrAssignmentLocked
	}
	delete(s.rows, id)
	return nil
}

func (s *memoryAssignmentStore) List(_ context.Context, filter models.AssignmentFilter) ([]*models.EventStaffAssignment, error) {
	return nil, fmt.Errorf("List is not supported by the in-memory store")
}

func (s *memoryAssignmentStore) LinkToBatch(context.Context, []uuid.UUID, uuid.UUID, string) (int64, error) {
	return 0, fmt.Errorf("LinkToBatch is not supported by the in-memory store")
}

func (s *memoryAssignmentStore) MarkBatchPaid(context.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, fmt.Errorf("MarkBatchPaid is not supported by the in-memory store")
}
