package config

import (
	_ "embed"
	"fmt"
	"os"

	"crewpay/models"

	"gopkg.in/yaml.v3"
)

//go:embed default_pay_rates.yaml
var defaultPayRatesYAML []byte

// PayRateFile is the YAML layout of a pay rate set
type PayRateFile struct {
	Rates []PayRateEntry `yaml:"rates"`
}

// PayRateEntry is one rule in a pay rate file
type PayRateEntry struct {
	PositionKey   string             `yaml:"position_key"`
	PositionLabel string             `yaml:"position_label"`
	RateModel     string             `yaml:"rate_model"`
	Parameters    map[string]float64 `yaml:"parameters"`
	Notes         string             `yaml:"notes,omitempty"`
}

// DefaultPayRates provides the fallback rule set. It satisfies the
// catalog's default provider and is safe to share once loaded.
type DefaultPayRates struct {
	rules []*models.PayRateRule
}

// LoadDefaultPayRates loads the rule set from path, or the embedded set when path is empty
func LoadDefaultPayRates(path string) (*DefaultPayRates, error) {
	data := defaultPayRatesYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pay rates %q: %w", path, err)
		}
	}

	rules, err := ParsePayRates(data)
	if err != nil {
		return nil, err
	}
	return &DefaultPayRates{rules: rules}, nil
}

// MustLoadEmbeddedPayRates returns the embedded rule set, panicking if it does not parse
func MustLoadEmbeddedPayRates() *DefaultPayRates {
	rates, err := LoadDefaultPayRates("")
	if err != nil {
		panic(fmt.Sprintf("embedded pay rates are invalid: %v", err))
	}
	return rates
}

// DefaultRules returns a copy of the rule set
func (d *DefaultPayRates) DefaultRules() []*models.PayRateRule {
	out := make([]*models.PayRateRule, 0, len(d.rules))
	for _, r := range d.rules {
		copied := *r
		out = append(out, &copied)
	}
	return out
}

// ParsePayRates decodes a YAML pay rate set
func ParsePayRates(data []byte) ([]*models.PayRateRule, error) {
	var file PayRateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pay rates: %w", err)
	}

	seen := make(map[models.RoleID]bool, len(file.Rates))
	rules := make([]*models.PayRateRule, 0, len(file.Rates))
	for i, entry := range file.Rates {
		key := models.NormalizeRole(entry.PositionKey)
		if key.IsZero() {
			return nil, fmt.Errorf("pay rate %d: position_key is required", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("pay rate %q: duplicate position_key", key)
		}
		seen[key] = true

		model, err := models.NewRateModel(models.RateModelKind(entry.RateModel), entry.Parameters)
		if err != nil {
			return nil, fmt.Errorf("pay rate %q: %w", key, err)
		}

		rules = append(rules, &models.PayRateRule{
			PositionKey:   key,
			PositionLabel: entry.PositionLabel,
			Model:         model,
			Notes:         entry.Notes,
		})
	}
	return rules, nil
}
