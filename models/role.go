package models

import (
	"strings"
	"unicode"
)

// RoleID is the canonical identifier of a staffing position. Position keys
// ("driver_a") and human labels ("Driver A") normalize to the same RoleID.
type RoleID string

// NormalizeRole converts a position key or label into its RoleID
func NormalizeRole(s string) RoleID {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return RoleID(b.String())
}

// String returns the RoleID as a plain string
func (r RoleID) String() string {
	return string(r)
}

// IsZero reports whether the RoleID is empty
func (r RoleID) IsZero() bool {
	return r == ""
}

// DefaultLabel renders a key as a title-cased label ("box_prep" -> "Box Prep").
// Used only when no catalog label is known for the role.
func (r RoleID) DefaultLabel() string {
	parts := strings.Split(string(r), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
