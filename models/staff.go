package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StaffMember is an entry in the staff directory
type StaffMember struct {
	ID        uuid.UUID `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	CreatedAt time.Time `db:"created_at"`
}

// FullName returns "First Last", skipping empty parts
func (s *StaffMember) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
