package repository

import (
	"context"
	"fmt"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
)

// StaffRepository is the staff directory backed by the staff table
type StaffRepository struct {
	q queryable
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *database.DB) *StaffRepository {
	return &StaffRepository{q: db.Pool}
}

// Exists reports whether a staff member exists
func (r *StaffRepository) Exists(ctx context.Context, staffID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM staff WHERE id = $1)`, staffID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check staff %s: %w", staffID, err)
	}
	return exists, nil
}

// List returns all staff members ordered by name
func (r *StaffRepository) List(ctx context.Context) ([]*models.StaffMember, error) {
	query := `
		SELECT id, first_name, last_name, created_at
		FROM staff
		ORDER BY first_name, last_name
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var staff []*models.StaffMember
	for rows.Next() {
		var member models.StaffMember
		if err := rows.Scan(&member.ID, &member.FirstName, &member.LastName, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		staff = append(staff, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}

	return staff, nil
}
