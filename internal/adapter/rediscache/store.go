// Package rediscache caches third-party provider responses in Redis with a
// fixed TTL. Each decorator wraps one domain provider interface.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "urbanpulse:"

// Store is a JSON value cache backed by Redis.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStore connects to Redis and verifies the connection with a ping.
func NewStore(ctx context.Context, addr, password string, db int, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &Store{client: client, ttl: ttl, metrics: metrics, logger: logger}, nil
}

// CheckReadiness pings Redis.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// getOrLoad returns the cached value for key or calls load and caches its
// result. Redis failures degrade to calling load; load failures are never
// cached.
func getOrLoad[T any](ctx context.Context, s *Store, cache, key string, load func() (T, error)) (T, error) {
	key = keyPrefix + key

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			s.metrics.ObserveCache(cache, true)
			return v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("redis get failed", "key", key, "error", err)
	}
	s.metrics.ObserveCache(cache, false)

	v, err := load()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encode cache entry", "key", key, "error", err)
		return v, nil
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("redis set failed", "key", key, "error", err)
	}
	return v, nil
}
