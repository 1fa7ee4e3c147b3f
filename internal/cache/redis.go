// Package cache provides the redis-backed explanation cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/explain"
)

// DefaultTTL is used when a non-positive TTL is configured.
const DefaultTTL = 24 * time.Hour

// Redis caches JSON-encoded values with a fixed TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to addr and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis cache initialized", zap.String("addr", addr), zap.Duration("ttl", ttl))
	return &Redis{client: client, ttl: ttl, logger: logger}, nil
}

// Close closes the underlying client.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Set stores v under key.
func (c *Redis) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}
	return nil
}

// Get loads key into v. It reports false on a miss.
func (c *Redis) Get(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache key: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

// GetExplanation implements explain.Cache.
func (c *Redis) GetExplanation(ctx context.Context, key string) (*explain.Explanation, bool) {
	var e explain.Explanation
	ok, err := c.Get(ctx, key, &e)
	if err != nil {
		c.logger.Warn("explanation cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &e, true
}

// SetExplanation implements explain.Cache.
func (c *Redis) SetExplanation(ctx context.Context, key string, e explain.Explanation) {
	if err := c.Set(ctx, key, e); err != nil {
		c.logger.Warn("explanation cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateExplanations deletes every cached explanation. Used after the
// index is rebuilt.
func (c *Redis) InvalidateExplanations(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "explain:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("failed to delete cache key", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}
	return nil
}

var _ explain.Cache = (*Redis)(nil)
