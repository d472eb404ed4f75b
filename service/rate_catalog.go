package service

import (
	"context"
	"sort"

	"crewpay/models"

	log "github.com/sirupsen/logrus"
)

// RuleSet is a merged, read-only snapshot of the pay rate rules
type RuleSet struct {
	rules        map[models.RoleID]*models.PayRateRule
	labels       map[models.RoleID]models.RoleID
	fromDefaults bool
}

// NewRuleSet builds a snapshot from rules; later rules replace earlier ones with the same key
func NewRuleSet(rules ...*models.PayRateRule) *RuleSet {
	set := &RuleSet{
		rules:  make(map[models.RoleID]*models.PayRateRule, len(rules)),
		labels: make(map[models.RoleID]models.RoleID, len(rules)),
	}
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		set.rules[models.NormalizeRole(string(rule.PositionKey))] = rule
	}
	for _, rule := range set.Rules() {
		label := models.NormalizeRole(rule.Label())
		if _, taken := set.labels[label]; !taken {
			set.labels[label] = models.NormalizeRole(string(rule.PositionKey))
		}
	}
	return set
}

// GetRule returns the rule for a role, or nil when the role has none
func (s *RuleSet) GetRule(role models.RoleID) *models.PayRateRule {
	if s == nil {
		return nil
	}
	return s.rules[models.NormalizeRole(string(role))]
}

// Rules returns every rule ordered by position key
func (s *RuleSet) Rules() []*models.PayRateRule {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.rules))
	for key := range s.rules {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	rules := make([]*models.PayRateRule, 0, len(keys))
	for _, key := range keys {
		rules = append(rules, s.rules[models.RoleID(key)])
	}
	return rules
}

// LabelFor returns the canonical label of a role
func (s *RuleSet) LabelFor(role models.RoleID) string {
	role = models.NormalizeRole(string(role))
	if rule := s.GetRule(role); rule != nil {
		return rule.Label()
	}
	return role.DefaultLabel()
}

// RoleOf returns the role an assignment fills. A stored key naming a known
// rule wins; otherwise the label (or a key derived from it) is matched
// case-insensitively against the rule labels.
func (s *RuleSet) RoleOf(a *models.EventStaffAssignment) models.RoleID {
	role := a.RoleID()
	if s == nil || s.GetRule(role) != nil {
		return role
	}
	if key, ok := s.labels[models.NormalizeRole(a.Role)]; ok {
		return key
	}
	if key, ok := s.labels[role]; ok {
		return key
	}
	return role
}

// FromDefaults reports whether the snapshot holds only built-in rules
func (s *RuleSet) FromDefaults() bool {
	return s != nil && s.fromDefaults
}

// RateCatalog resolves position keys to pay rate rules. Stored rules overlay
// the built-in defaults per key; an empty or failing store yields the defaults.
type RateCatalog struct {
	store    PayRateRuleRepository
	defaults DefaultRuleProvider
}

// NewRateCatalog creates a catalog over a rule store and a default rule provider.
// store may be nil, in which case only the defaults are served.
func NewRateCatalog(store PayRateRuleRepository, defaults DefaultRuleProvider) *RateCatalog {
	return &RateCatalog{store: store, defaults: defaults}
}

// Load returns a merged snapshot of the current rules. It never fails.
func (c *RateCatalog) Load(ctx context.Context) *RuleSet {
	var defaults []*models.PayRateRule
	if c.defaults != nil {
		defaults = c.defaults.DefaultRules()
	}

	if c.store == nil {
		return c.defaultsOnly(defaults)
	}

	stored, err := c.store.ListRules(ctx)
	if err != nil {
		log.WithError(err).Warn("Pay rate rules unavailable, using built-in defaults")
		return c.defaultsOnly(defaults)
	}
	if len(stored) == 0 {
		log.Debug("No stored pay rate rules, using built-in defaults")
		return c.defaultsOnly(defaults)
	}

	return NewRuleSet(append(defaults, stored...)...)
}

func (c *RateCatalog) defaultsOnly(defaults []*models.PayRateRule) *RuleSet {
	set := NewRuleSet(defaults...)
	set.fromDefaults = true
	return set
}

// GetRule returns the rule for a position key, or nil when none exists
func (c *RateCatalog) GetRule(ctx context.Context, positionKey models.RoleID) *models.PayRateRule {
	return c.Load(ctx).GetRule(positionKey)
}

// Rules returns the merged rule list ordered by position key
func (c *RateCatalog) Rules(ctx context.Context) []*models.PayRateRule {
	return c.Load(ctx).Rules()
}

// LabelFor returns the canonical label of a role
func (c *RateCatalog) LabelFor(ctx context.Context, role models.RoleID) string {
	return c.Load(ctx).LabelFor(role)
}
