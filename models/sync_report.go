package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SkipReason explains why a role was not written during reconciliation
type SkipReason string

const (
	SkipReasonUserNotFound   SkipReason = "user_not_found"
	SkipReasonSelectError    SkipReason = "select_error"
	SkipReasonValidateFailed SkipReason = "validate_failed"
	SkipReasonUpsertFailed   SkipReason = "upsert_failed"
	SkipReasonCreateFailed   SkipReason = "create_failed"
	SkipReasonDeleteFailed   SkipReason = "delete_failed"
)

// SkippedRole is a role that reconciliation could not write
type SkippedRole struct {
	Role   RoleID
	Label  string
	Reason SkipReason
	Detail string
}

// SyncReport lists per-role outcomes of one reconciliation
type SyncReport struct {
	EventID uuid.UUID
	Created []RoleID
	Updated []RoleID
	Deleted []RoleID
	Skipped []SkippedRole
}

// HasChanges reports whether any row was written
func (r *SyncReport) HasChanges() bool {
	return len(r.Created)+len(r.Updated)+len(r.Deleted) > 0
}

// Summary renders the report for an administrator, e.g.
// "3 created, 1 updated, 0 deleted, 1 skipped: Driver B: user_not_found"
func (r *SyncReport) Summary() string {
	summary := fmt.Sprintf("%d created, %d updated, %d deleted, %d skipped",
		len(r.Created), len(r.Updated), len(r.Deleted), len(r.Skipped))
	if len(r.Skipped) == 0 {
		return summary
	}

	details := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		label := s.Label
		if label == "" {
			label = s.Role.DefaultLabel()
		}
		details = append(details, fmt.Sprintf("%s: %s", label, s.Reason))
	}
	return summary + ": " + strings.Join(details, "; ")
}
