package models

import (
	"fmt"
	"math"
)

// RateModelKind is the storage tag of a rate model
type RateModelKind string

const (
	RateModelFlat           RateModelKind = "flat"
	RateModelPerDirection   RateModelKind = "per_direction"
	RateModelPercentRevenue RateModelKind = "percent_revenue"
	RateModelTieredHours    RateModelKind = "tiered_hours"
	RateModelTieredQuantity RateModelKind = "tiered_quantity"
)

// Parameter names shared by rule storage, overrides and effective parameters
const (
	ParamAmount             = "amount"
	ParamAmountPerDirection = "amount_per_direction"
	ParamDirections         = "directions"
	ParamPercentage         = "percentage"
	ParamBaseHours          = "base_hours"
	ParamBaseAmount         = "base_amount"
	ParamOvertimeRate       = "overtime_rate"
	ParamHours              = "hours"
	ParamBaseQuantity       = "base_quantity"
	ParamExtraRate          = "extra_rate"
	ParamQuantity           = "quantity"
)

// DefaultDirections is a round trip
const DefaultDirections = 2

// CompensationContext carries the event figures a rate model may depend on
type CompensationContext struct {
	RevenuePreTax      float64
	EventDurationHours float64
}

// RateModel is the closed set of compensation formulas. The unexported
// marker keeps the set limited to the five variants in this file.
type RateModel interface {
	// Kind returns the storage tag
	Kind() RateModelKind

	// Parameters returns the model's parameters keyed by parameter name
	Parameters() map[string]float64

	// Resolve merges overrides per field and fills actual values
	// (directions, hours, quantity) that were left unspecified
	Resolve(overrides map[string]float64, ctx CompensationContext) RateModel

	// Compute returns the unrounded total and a human-readable breakdown
	Compute(ctx CompensationContext) (float64, string)

	isRateModel()
}

// NewRateModel decodes a stored kind and parameter map into a rate model
func NewRateModel(kind RateModelKind, params map[string]float64) (RateModel, error) {
	switch kind {
	case RateModelFlat:
		return FlatRate{Amount: params[ParamAmount]}, nil
	case RateModelPerDirection:
		directions := float64(DefaultDirections)
		if v, ok := params[ParamDirections]; ok {
			directions = v
		}
		return PerDirectionRate{
			AmountPerDirection: params[ParamAmountPerDirection],
			Directions:         directions,
		}, nil
	case RateModelPercentRevenue:
		return PercentRevenueRate{Percentage: params[ParamPercentage]}, nil
	case RateModelTieredHours:
		r := TieredHoursRate{
			BaseHours:    params[ParamBaseHours],
			BaseAmount:   params[ParamBaseAmount],
			OvertimeRate: params[ParamOvertimeRate],
		}
		if v, ok := params[ParamHours]; ok {
			r.Hours = &v
		}
		return r, nil
	case RateModelTieredQuantity:
		r := TieredQuantityRate{
			BaseQuantity: params[ParamBaseQuantity],
			BaseAmount:   params[ParamBaseAmount],
			ExtraRate:    params[ParamExtraRate],
		}
		if v, ok := params[ParamQuantity]; ok {
			r.Quantity = &v
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRateModel, kind)
	}
}

// FlatRate pays a fixed amount
type FlatRate struct {
	Amount float64
}

func (FlatRate) isRateModel() {}

func (FlatRate) Kind() RateModelKind { return RateModelFlat }

func (r FlatRate) Parameters() map[string]float64 {
	return map[string]float64{ParamAmount: r.Amount}
}

func (r FlatRate) Resolve(overrides map[string]float64, _ CompensationContext) RateModel {
	override(&r.Amount, overrides, ParamAmount)
	return r
}

func (r FlatRate) Compute(CompensationContext) (float64, string) {
	return r.Amount, fmt.Sprintf("Flat rate %s", formatMoney(r.Amount))
}

// PerDirectionRate pays per leg travelled
type PerDirectionRate struct {
	AmountPerDirection float64
	Directions         float64
}

func (PerDirectionRate) isRateModel() {}

func (PerDirectionRate) Kind() RateModelKind { return RateModelPerDirection }

func (r PerDirectionRate) Parameters() map[string]float64 {
	return map[string]float64{
		ParamAmountPerDirection: r.AmountPerDirection,
		ParamDirections:         r.Directions,
	}
}

func (r PerDirectionRate) Resolve(overrides map[string]float64, _ CompensationContext) RateModel {
	override(&r.AmountPerDirection, overrides, ParamAmountPerDirection)
	override(&r.Directions, overrides, ParamDirections)
	return r
}

func (r PerDirectionRate) Compute(CompensationContext) (float64, string) {
	return r.AmountPerDirection * r.Directions,
		fmt.Sprintf("%s direction(s) x %s", formatQuantity(r.Directions), formatMoney(r.AmountPerDirection))
}

// PercentRevenueRate pays a share of the event's pre-tax revenue
type PercentRevenueRate struct {
	Percentage float64
}

func (PercentRevenueRate) isRateModel() {}

func (PercentRevenueRate) Kind() RateModelKind { return RateModelPercentRevenue }

func (r PercentRevenueRate) Parameters() map[string]float64 {
	return map[string]float64{ParamPercentage: r.Percentage}
}

func (r PercentRevenueRate) Resolve(overrides map[string]float64, _ CompensationContext) RateModel {
	override(&r.Percentage, overrides, ParamPercentage)
	return r
}

func (r PercentRevenueRate) Compute(ctx CompensationContext) (float64, string) {
	if ctx.RevenuePreTax <= 0 {
		return 0, fmt.Sprintf("%s%% of pre-tax revenue (revenue not available)", formatQuantity(r.Percentage))
	}
	return ctx.RevenuePreTax * (r.Percentage / 100),
		fmt.Sprintf("%s%% of %s pre-tax revenue", formatQuantity(r.Percentage), formatMoney(ctx.RevenuePreTax))
}

// TieredHoursRate pays a base amount spread over base hours, then an hourly overtime rate
type TieredHoursRate struct {
	BaseHours    float64
	BaseAmount   float64
	OvertimeRate float64
	Hours        *float64 // nil until resolved; falls back to BaseHours
}

func (TieredHoursRate) isRateModel() {}

func (TieredHoursRate) Kind() RateModelKind { return RateModelTieredHours }

func (r TieredHoursRate) Parameters() map[string]float64 {
	params := map[string]float64{
		ParamBaseHours:    r.BaseHours,
		ParamBaseAmount:   r.BaseAmount,
		ParamOvertimeRate: r.OvertimeRate,
	}
	if r.Hours != nil {
		params[ParamHours] = *r.Hours
	}
	return params
}

func (r TieredHoursRate) Resolve(overrides map[string]float64, ctx CompensationContext) RateModel {
	override(&r.BaseHours, overrides, ParamBaseHours)
	override(&r.BaseAmount, overrides, ParamBaseAmount)
	override(&r.OvertimeRate, overrides, ParamOvertimeRate)

	hours := r.BaseHours
	switch {
	case hasKey(overrides, ParamHours):
		hours = overrides[ParamHours]
	case ctx.EventDurationHours > 0:
		hours = ctx.EventDurationHours
	case r.Hours != nil:
		hours = *r.Hours
	}
	r.Hours = &hours
	return r
}

func (r TieredHoursRate) Compute(CompensationContext) (float64, string) {
	hours := r.BaseHours
	if r.Hours != nil {
		hours = *r.Hours
	}

	baseRate := 0.0
	if r.BaseHours != 0 {
		baseRate = r.BaseAmount / r.BaseHours
	}
	billedBase := math.Min(hours, r.BaseHours)
	overtime := math.Max(0, hours-r.BaseHours)
	total := billedBase*baseRate + overtime*r.OvertimeRate

	if overtime == 0 {
		return total, fmt.Sprintf("%sh of %sh base (%s)", formatQuantity(billedBase), formatQuantity(r.BaseHours), formatMoney(r.BaseAmount))
	}
	return total, fmt.Sprintf("%sh base (%s) + %sh overtime x %s/h",
		formatQuantity(billedBase), formatMoney(billedBase*baseRate), formatQuantity(overtime), formatMoney(r.OvertimeRate))
}

// TieredQuantityRate pays a base amount covering a base quantity, then a rate per extra unit
type TieredQuantityRate struct {
	BaseQuantity float64
	BaseAmount   float64
	ExtraRate    float64
	Quantity     *float64 // nil until resolved; falls back to BaseQuantity
}

func (TieredQuantityRate) isRateModel() {}

func (TieredQuantityRate) Kind() RateModelKind { return RateModelTieredQuantity }

func (r TieredQuantityRate) Parameters() map[string]float64 {
	params := map[string]float64{
		ParamBaseQuantity: r.BaseQuantity,
		ParamBaseAmount:   r.BaseAmount,
		ParamExtraRate:    r.ExtraRate,
	}
	if r.Quantity != nil {
		params[ParamQuantity] = *r.Quantity
	}
	return params
}

func (r TieredQuantityRate) Resolve(overrides map[string]float64, _ CompensationContext) RateModel {
	override(&r.BaseQuantity, overrides, ParamBaseQuantity)
	override(&r.BaseAmount, overrides, ParamBaseAmount)
	override(&r.ExtraRate, overrides, ParamExtraRate)

	quantity := r.BaseQuantity
	if hasKey(overrides, ParamQuantity) {
		quantity = overrides[ParamQuantity]
	} else if r.Quantity != nil {
		quantity = *r.Quantity
	}
	r.Quantity = &quantity
	return r
}

func (r TieredQuantityRate) Compute(CompensationContext) (float64, string) {
	quantity := r.BaseQuantity
	if r.Quantity != nil {
		quantity = *r.Quantity
	}

	if quantity <= r.BaseQuantity {
		return r.BaseAmount, fmt.Sprintf("Base %s covers up to %s (%s)", formatMoney(r.BaseAmount), formatQuantity(r.BaseQuantity), formatQuantity(quantity))
	}
	extra := quantity - r.BaseQuantity
	return r.BaseAmount + extra*r.ExtraRate,
		fmt.Sprintf("Base %s + %s extra x %s", formatMoney(r.BaseAmount), formatQuantity(extra), formatMoney(r.ExtraRate))
}

func override(field *float64, overrides map[string]float64, key string) {
	if v, ok := overrides[key]; ok {
		*field = v
	}
}

func hasKey(m map[string]float64, key string) bool {
	_, ok := m[key]
	return ok
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// formatQuantity drops the fraction for whole numbers
func formatQuantity(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
