package service

import (
	"math"

	"crewpay/models"
)

const (
	noRuleBreakdown         = "No rule configured"
	manualOverrideBreakdown = "Manual override"
)

// CalculateCompensation computes an assignment's pay from its position rule,
// an optional per-assignment override and the event context.
//
// A manual total wins over everything else and is returned unrounded with the
// breakdown "Manual override". A missing rule yields zero. Otherwise the rule is resolved with the overrides
// and the result is floored at zero and rounded to cents.
func CalculateCompensation(rule *models.PayRateRule, override *models.CompensationOverride, ctx models.CompensationContext) models.CompensationResult {
	if override != nil && override.ManualTotal != nil {
		manual := *override.ManualTotal
		return models.CompensationResult{
			Total:               manual,
			Breakdown:           manualOverrideBreakdown,
			EffectiveParameters: map[string]float64{"manual_total": manual},
		}
	}

	if rule == nil || rule.Model == nil {
		return models.CompensationResult{
			Total:               0,
			Breakdown:           noRuleBreakdown,
			EffectiveParameters: map[string]float64{},
		}
	}

	var overrides map[string]float64
	if override != nil {
		overrides = override.Overrides
	}

	resolved := rule.Model.Resolve(overrides, ctx)
	total, breakdown := resolved.Compute(ctx)

	return models.CompensationResult{
		Total:               roundCurrency(total),
		Breakdown:           breakdown,
		EffectiveParameters: resolved.Parameters(),
		NeedsRevenue:        resolved.Kind() == models.RateModelPercentRevenue && ctx.RevenuePreTax <= 0,
	}
}

// roundCurrency floors at zero and rounds half away from zero to cents
func roundCurrency(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return math.Round(v*100) / 100
}
