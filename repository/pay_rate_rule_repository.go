package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"crewpay/database"
	"crewpay/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PayRateRuleRepository stores administrator-edited pay rate rules
type PayRateRuleRepository struct {
	q queryable
}

// NewPayRateRuleRepository creates a new pay rate rule repository
func NewPayRateRuleRepository(db *database.DB) *PayRateRuleRepository {
	return &PayRateRuleRepository{q: db.Pool}
}

// newPayRateRuleRepositoryWithTx creates a new pay rate rule repository with a transaction
func newPayRateRuleRepositoryWithTx(tx queryable) *PayRateRuleRepository {
	return &PayRateRuleRepository{q: tx}
}

// ListRules returns every stored rule ordered by position key. Rows naming an
// unknown rate model are skipped with a warning rather than failing the list.
func (r *PayRateRuleRepository) ListRules(ctx context.Context) ([]*models.PayRateRule, error) {
	query := `
		SELECT id, position_key, position_label, rate_model, parameters, notes, updated_at
		FROM pay_rate_rules
		ORDER BY position_key
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay rate rules: %w", err)
	}
	defer rows.Close()

	var rules []*models.PayRateRule
	for rows.Next() {
		var (
			id         uuid.UUID
			rule       models.PayRateRule
			kind       string
			paramsJSON []byte
		)
		if err := rows.Scan(&id, &rule.PositionKey, &rule.PositionLabel, &kind, &paramsJSON, &rule.Notes, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pay rate rule: %w", err)
		}

		params := map[string]float64{}
		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &params); err != nil {
				log.WithFields(log.Fields{
					"position_key": rule.PositionKey,
				}).WithError(err).Warn("Skipping pay rate rule with unreadable parameters")
				continue
			}
		}

		model, err := models.NewRateModel(models.RateModelKind(kind), params)
		if err != nil {
			log.WithFields(log.Fields{
				"position_key": rule.PositionKey,
				"rate_model":   kind,
			}).WithError(err).Warn("Skipping pay rate rule")
			continue
		}

		rule.ID = &id
		rule.Model = model
		rules = append(rules, &rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pay rate rules: %w", err)
	}

	return rules, nil
}

// Upsert creates or replaces the rule for its position key
func (r *PayRateRuleRepository) Upsert(ctx context.Context, rule *models.PayRateRule) error {
	if rule.Model == nil {
		return fmt.Errorf("pay rate rule %s has no rate model", rule.PositionKey)
	}
	rule.PositionKey = models.NormalizeRole(string(rule.PositionKey))
	if rule.PositionKey.IsZero() {
		return fmt.Errorf("pay rate rule has an empty position key")
	}

	paramsJSON, err := json.Marshal(rule.Model.Parameters())
	if err != nil {
		return fmt.Errorf("failed to marshal parameters for %s: %w", rule.PositionKey, err)
	}

	query := `
		INSERT INTO pay_rate_rules (position_key, position_label, rate_model, parameters, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (position_key) DO UPDATE SET
			position_label = EXCLUDED.position_label,
			rate_model = EXCLUDED.rate_model,
			parameters = EXCLUDED.parameters,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, updated_at
	`

	var id uuid.UUID
	err = r.q.QueryRow(ctx, query,
		string(rule.PositionKey),
		rule.Label(),
		string(rule.Model.Kind()),
		paramsJSON,
		rule.Notes,
	).Scan(&id, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert pay rate rule %s: %w", rule.PositionKey, err)
	}

	rule.ID = &id
	return nil
}
