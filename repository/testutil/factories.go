package testutil

import (
	"context"
	"testing"
	"time"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// InsertStaff inserts a staff member directly
func InsertStaff(t *testing.T, db *database.DB, firstName, lastName string) *models.StaffMember {
	t.Helper()

	member := &models.StaffMember{FirstName: firstName, LastName: lastName}
	err := db.QueryRow(context.Background(),
		`INSERT INTO staff (first_name, last_name) VALUES ($1, $2) RETURNING id, created_at`,
		firstName, lastName,
	).Scan(&member.ID, &member.CreatedAt)
	require.NoError(t, err)
	return member
}

// InsertEvent inserts an event directly
func InsertEvent(t *testing.T, db *database.DB, name string, date time.Time, revenue, durationHours float64) *models.Event {
	t.Helper()

	event := &models.Event{
		Name:          name,
		EventDate:     time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		RevenuePreTax: revenue,
		DurationHours: durationHours,
	}
	err := db.QueryRow(context.Background(),
		`INSERT INTO events (name, event_date, revenue_pre_tax, duration_hours) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, event.EventDate, revenue, durationHours,
	).Scan(&event.ID)
	require.NoError(t, err)
	return event
}

// SetAssignmentStatus changes an assignment's status directly
func SetAssignmentStatus(t *testing.T, db *database.DB, id uuid.UUID, status models.AssignmentStatus) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`UPDATE event_staff_assignments SET status = $2 WHERE id = $1`, id, string(status))
	require.NoError(t, err)
}

// NewTestAssignment builds an unsaved pending assignment with a flat pay rate
func NewTestAssignment(eventID, staffID uuid.UUID, role models.RoleID, payRate float64) *models.EventStaffAssignment {
	return &models.EventStaffAssignment{
		EventID: eventID,
		Role:    role.DefaultLabel(),
		RoleKey: role,
		StaffID: staffID,
		Status:  models.AssignmentStatusPending,
		PayType: models.PayTypeFlat,
		PayRate: payRate,
	}
}

// NewTestFlatRule builds an unsaved flat-rate rule
func NewTestFlatRule(key models.RoleID, amount float64) *models.PayRateRule {
	return &models.PayRateRule{
		PositionKey:   key,
		PositionLabel: key.DefaultLabel(),
		Model:         models.FlatRate{Amount: amount},
	}
}
