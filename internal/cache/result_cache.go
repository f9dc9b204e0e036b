// Package cache memoizes full pipeline runs. Planning results are pure
// functions of their input dataset, so entries are keyed by a fingerprint
// of the dataset contents and can be shared across callers.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GabrielHeyne/planity-backend/internal/config"
)

const (
	planningResultKeyPrefix = "planning:result"
	planningScanBatchSize   = 100
)

// ResultCache stores serialized planning results.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string, out interface{}) (bool, error)
	Set(ctx context.Context, fingerprint string, result interface{}) error
	InvalidateAll(ctx context.Context) error
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopResultCache struct{}

// NewResultCache returns a redis-backed cache when enabled, otherwise a noop
// implementation so callers never branch on configuration.
func NewResultCache(cfg config.CacheConfig) (ResultCache, error) {
	if !cfg.Enabled {
		return &noopResultCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisResultCache{client: client, ttl: ttl}, nil
}

func NewNoopResultCache() ResultCache {
	return &noopResultCache{}
}

// Fingerprint hashes any JSON-serializable dataset into a stable cache key
// component.
func Fingerprint(dataset interface{}) string {
	payload, err := json.Marshal(dataset)
	if err != nil {
		return "unhashable"
	}
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])
}

func (c *redisResultCache) Get(ctx context.Context, fingerprint string, out interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, buildResultKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return false, fmt.Errorf("decode planning result cache: %w", err)
	}
	return true, nil
}

func (c *redisResultCache) Set(ctx context.Context, fingerprint string, result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode planning result cache: %w", err)
	}
	if err := c.client.Set(ctx, buildResultKey(fingerprint), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisResultCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, planningResultKeyPrefix, planningScanBatchSize)
}

func (n *noopResultCache) Get(ctx context.Context, fingerprint string, out interface{}) (bool, error) {
	return false, nil
}

func (n *noopResultCache) Set(ctx context.Context, fingerprint string, result interface{}) error {
	return nil
}

func (n *noopResultCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildResultKey(fingerprint string) string {
	return fmt.Sprintf("%s:%s", planningResultKeyPrefix, fingerprint)
}
