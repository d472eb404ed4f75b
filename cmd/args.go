package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crewpay/models"

	"github.com/google/uuid"
)

// Context arguments accepted by "rules quote" alongside rate parameters
const (
	argRevenue     = "revenue"
	argDuration    = "duration"
	argManualTotal = "manual_total"
)

const dateLayout = "2006-01-02"

// splitPair splits "key=value", rejecting empty keys
func splitPair(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", arg)
	}
	return key, strings.TrimSpace(value), nil
}

// parseQuoteArgs turns quote arguments into a compensation context and override.
// revenue and duration feed the context, manual_total replaces the total, and
// every other key overrides the rate parameter of the same name.
func parseQuoteArgs(args []string) (models.CompensationContext, *models.CompensationOverride, error) {
	var ctx models.CompensationContext
	override := &models.CompensationOverride{}

	for _, arg := range args {
		key, raw, err := splitPair(arg)
		if err != nil {
			return ctx, nil, err
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return ctx, nil, fmt.Errorf("invalid number for %s: %q", key, raw)
		}

		switch key {
		case argRevenue:
			ctx.RevenuePreTax = value
		case argDuration:
			ctx.EventDurationHours = value
		case argManualTotal:
			override.ManualTotal = &value
		default:
			if override.Overrides == nil {
				override.Overrides = make(map[string]float64)
			}
			override.Overrides[key] = value
		}
	}

	if override.IsEmpty() {
		return ctx, nil, nil
	}
	return ctx, override, nil
}

// parseSelection turns role=staff arguments into a positions grid. An empty
// or "-" staff value leaves the role unassigned.
func parseSelection(args []string) (models.PositionSelection, error) {
	selection := make(models.PositionSelection, len(args))
	for _, arg := range args {
		key, raw, err := splitPair(arg)
		if err != nil {
			return nil, err
		}
		role := models.NormalizeRole(key)
		if role.IsZero() {
			return nil, fmt.Errorf("invalid role %q", key)
		}

		if raw == "" || raw == "-" {
			selection[role] = uuid.Nil
			continue
		}
		staffID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid staff id for %s: %w", role, err)
		}
		selection[role] = staffID
	}
	return selection, nil
}

// parseDate accepts YYYY-MM-DD, or "today"
func parseDate(arg string, now time.Time) (time.Time, error) {
	if arg == "today" {
		return now, nil
	}
	d, err := time.Parse(dateLayout, arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", arg)
	}
	return d, nil
}
