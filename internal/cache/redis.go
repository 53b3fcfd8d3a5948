// Package cache provides a Redis-backed JSON cache for expensive lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"salesbot/internal/config"
)

// Redis wraps a redis client with JSON helpers.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. Returns an error when
// the server is unreachable so the caller can decide whether to run without
// caching.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		client: client,
		logger: logger.With("component", "cache"),
		ttl:    cfg.TTL,
	}, nil
}

// SetJSON marshals value and stores it under key with the configured TTL.
func (r *Redis) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cache key %q: %w", key, err)
	}
	return nil
}

// GetJSON loads key into dest. The second return value reports whether the
// key was found; a miss is not an error.
func (r *Redis) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cache key %q: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal cache value for %q: %w", key, err)
	}
	return true, nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
