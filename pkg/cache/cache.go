// Package cache is a small JSON-over-Redis cache. A Store with no client is
// valid and caches nothing, so callers never branch on Redis availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/diner/pkg/metrics"
)

// Store wraps a Redis client.
type Store struct {
	rdb *redis.Client
}

// New wraps an existing client. A nil client yields a no-op Store.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Connect dials Redis and verifies the connection with a ping. An empty addr
// returns a no-op Store and no error.
func Connect(ctx context.Context, addr, password string) (*Store, error) {
	if addr == "" {
		return &Store{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return &Store{}, fmt.Errorf("cache: redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

// Get unmarshals the value under key into dest.
// Returns true on a cache hit, false on miss or error.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil || json.Unmarshal(val, dest) != nil {
		metrics.CacheMisses.WithLabelValues(key).Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues(key).Inc()
	return true
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Forget is an alias for Del.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.Del(ctx, key)
}

// Remember returns the cached value under key, or calls load, caches its
// result for ttl and stores it in dest. A failed cache write is not an error.
func (s *Store) Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() error) error {
	if s.Get(ctx, key, dest) {
		return nil
	}
	if load == nil {
		return errors.New("cache: nil loader")
	}
	if err := load(); err != nil {
		return err
	}
	_ = s.Set(ctx, key, dest, ttl)
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Close()
}
