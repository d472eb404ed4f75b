package repository

import (
	"context"
	"fmt"
	"time"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EventRepository reads the events the roster and payroll depend on
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	query := `
		SELECT id, name, event_date, revenue_pre_tax, duration_hours
		FROM events
		WHERE id = $1
	`

	var event models.Event
	err := r.q.QueryRow(ctx, query, eventID).Scan(
		&event.ID,
		&event.Name,
		&event.EventDate,
		&event.RevenuePreTax,
		&event.DurationHours,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", eventID, err)
	}

	return &event, nil
}

// GetEventDate returns the date of an event
func (r *EventRepository) GetEventDate(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	var eventDate time.Time
	err := r.q.QueryRow(ctx, `SELECT event_date FROM events WHERE id = $1`, eventID).Scan(&eventDate)
	if err == pgx.ErrNoRows {
		return time.Time{}, fmt.Errorf("%w: %s", models.ErrEventNotFound, eventID)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get date of event %s: %w", eventID, err)
	}
	return eventDate, nil
}
