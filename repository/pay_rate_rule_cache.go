package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crewpay/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const payRateRulesCacheKey = "crewpay:pay_rate_rules"

type ruleStore interface {
	ListRules(ctx context.Context) ([]*models.PayRateRule, error)
	Upsert(ctx context.Context, rule *models.PayRateRule) error
}

// cachedRule is the JSON shape of a rule in Redis
type cachedRule struct {
	ID            uuid.UUID          `json:"id"`
	PositionKey   string             `json:"position_key"`
	PositionLabel string             `json:"position_label"`
	RateModel     string             `json:"rate_model"`
	Parameters    map[string]float64 `json:"parameters"`
	Notes         string             `json:"notes"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CachedPayRateRuleRepository is a read-through Redis cache in front of the
// rule store. Redis failures fall through to the store.
type CachedPayRateRuleRepository struct {
	store  ruleStore
	client *redis.Client
	ttl    time.Duration
}

// NewCachedPayRateRuleRepository wraps store with a Redis cache
func NewCachedPayRateRuleRepository(store ruleStore, client *redis.Client, ttl time.Duration) *CachedPayRateRuleRepository {
	return &CachedPayRateRuleRepository{store: store, client: client, ttl: ttl}
}

// NewRedisClient creates a Redis client for the rule cache
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// ListRules returns cached rules, loading and caching them from the store on a miss
func (c *CachedPayRateRuleRepository) ListRules(ctx context.Context) ([]*models.PayRateRule, error) {
	data, err := c.client.Get(ctx, payRateRulesCacheKey).Bytes()
	switch {
	case err == nil:
		rules, decodeErr := decodeCachedRules(data)
		if decodeErr == nil {
			return rules, nil
		}
		log.WithError(decodeErr).Warn("Discarding unreadable pay rate rule cache entry")
	case errors.Is(err, redis.Nil):
		// miss
	default:
		log.WithError(err).Warn("Pay rate rule cache unavailable, reading from store")
	}

	rules, err := c.store.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeCachedRules(rules)
	if err != nil {
		log.WithError(err).Warn("Failed to encode pay rate rules for cache")
		return rules, nil
	}
	if err := c.client.Set(ctx, payRateRulesCacheKey, encoded, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Failed to cache pay rate rules")
	}

	return rules, nil
}

// Upsert writes through to the store and invalidates the cache
func (c *CachedPayRateRuleRepository) Upsert(ctx context.Context, rule *models.PayRateRule) error {
	if err := c.store.Upsert(ctx, rule); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached rule set
func (c *CachedPayRateRuleRepository) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, payRateRulesCacheKey).Err(); err != nil {
		log.WithError(err).Warn("Failed to invalidate pay rate rule cache")
	}
}

// Close releases the Redis client
func (c *CachedPayRateRuleRepository) Close() error {
	return c.client.Close()
}

func encodeCachedRules(rules []*models.PayRateRule) ([]byte, error) {
	cached := make([]cachedRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Model == nil {
			continue
		}
		entry := cachedRule{
			PositionKey:   string(rule.PositionKey),
			PositionLabel: rule.PositionLabel,
			RateModel:     string(rule.Model.Kind()),
			Parameters:    rule.Model.Parameters(),
			Notes:         rule.Notes,
			UpdatedAt:     rule.UpdatedAt,
		}
		if rule.ID != nil {
			entry.ID = *rule.ID
		}
		cached = append(cached, entry)
	}
	return json.Marshal(cached)
}

func decodeCachedRules(data []byte) ([]*models.PayRateRule, error) {
	var cached []cachedRule
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached rules: %w", err)
	}

	rules := make([]*models.PayRateRule, 0, len(cached))
	for _, entry := range cached {
		model, err := models.NewRateModel(models.RateModelKind(entry.RateModel), entry.Parameters)
		if err != nil {
			return nil, err
		}
		rule := &models.PayRateRule{
			PositionKey:   models.RoleID(entry.PositionKey),
			PositionLabel: entry.PositionLabel,
			Model:         model,
			Notes:         entry.Notes,
			UpdatedAt:     entry.UpdatedAt,
		}
		if entry.ID != uuid.Nil {
			id := entry.ID
			rule.ID = &id
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
