package models

import (
	"time"

	"github.com/google/uuid"
)

// PayRateRule is the compensation rule for one staffing position
type PayRateRule struct {
	ID            *uuid.UUID `db:"id"` // nil for built-in defaults
	PositionKey   RoleID     `db:"position_key"`
	PositionLabel string     `db:"position_label"`
	Model         RateModel  `db:"-"`
	Notes         string     `db:"notes"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// IsBuiltIn reports whether the rule comes from the default set rather than the store
func (r *PayRateRule) IsBuiltIn() bool {
	return r.ID == nil
}

// Label returns the position label, falling back to a label derived from the key
func (r *PayRateRule) Label() string {
	if r.PositionLabel != "" {
		return r.PositionLabel
	}
	return r.PositionKey.DefaultLabel()
}
