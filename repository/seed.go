package repository

import (
	"context"

	"crewpay/database"
	"crewpay/models"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// SeedPayRateRules upserts the given rules in a single transaction
func SeedPayRateRules(ctx context.Context, db *database.DB, rules []*models.PayRateRule) error {
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		repo := newPayRateRuleRepositoryWithTx(tx)
		for _, rule := range rules {
			if err := repo.Upsert(ctx, rule); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithField("rules", len(rules)).Info("Seeded pay rate rules")
	return nil
}
