package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the catered event an assignment belongs to. Owned by the
// surrounding booking screens; read-only here.
type Event struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	EventDate     time.Time `db:"event_date"`
	RevenuePreTax float64   `db:"revenue_pre_tax"`
	DurationHours float64   `db:"duration_hours"`
}

// CompensationContext returns the inputs the calculator needs from the event
func (e *Event) CompensationContext() CompensationContext {
	return CompensationContext{
		RevenuePreTax:      e.RevenuePreTax,
		EventDurationHours: e.DurationHours,
	}
}
