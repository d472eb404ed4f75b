package models

// CompensationOverride adjusts a rule for a single assignment.
// ManualTotal, when set, replaces the computed total entirely.
type CompensationOverride struct {
	Overrides   map[string]float64 `json:"overrides,omitempty"`
	ManualTotal *float64           `json:"manual_total,omitempty"`
}

// IsEmpty reports whether the override changes nothing
func (o *CompensationOverride) IsEmpty() bool {
	return o == nil || (len(o.Overrides) == 0 && o.ManualTotal == nil)
}

// CompensationResult is the calculator's output
type CompensationResult struct {
	Total               float64
	Breakdown           string
	EffectiveParameters map[string]float64

	// NeedsRevenue is set when a percentage rule was computed without revenue,
	// so callers can warn that the figure is not final
	NeedsRevenue bool
}
