// Package ignorecache provides Redis-backed caching for per-owner ignore
// lists, keeping the hot Contains check off the database during bulk
// imports.
package ignorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// Store is the subset of the Redis client the cache needs. Both the plain
// and the metrics-instrumented clients satisfy it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache stores per-owner ignored card sets in Redis.
type Cache struct {
	store Store
	ttl   time.Duration
}

// NewCache constructs an ignore list cache backed by the provided store.
func NewCache(store Store) *Cache {
	return &Cache{store: store, ttl: defaultTTL}
}

// Get fetches a cached ignore list if present. A nil set with nil error
// means cache miss.
func (c *Cache) Get(ctx context.Context, owner int64) (map[string]struct{}, error) {
	if c == nil || c.store == nil {
		return nil, nil
	}

	data, err := c.store.Get(ctx, cacheKey(owner))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached ignore list: %w", err)
	}

	var cards []string
	if err := json.Unmarshal([]byte(data), &cards); err != nil {
		return nil, fmt.Errorf("decode cached ignore list: %w", err)
	}

	set := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		set[card] = struct{}{}
	}

	return set, nil
}

// Set stores the owner's ignore list. An empty list is cached too, so
// owners without ignores do not hit the database on every message.
func (c *Cache) Set(ctx context.Context, owner int64, cards []string) error {
	if c == nil || c.store == nil {
		return nil
	}

	if cards == nil {
		cards = []string{}
	}

	payload, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("encode ignore list for cache: %w", err)
	}

	if err := c.store.Set(ctx, cacheKey(owner), payload, c.ttl); err != nil {
		return fmt.Errorf("set cached ignore list: %w", err)
	}

	return nil
}

// Invalidate drops the owner's cached list after a mutation.
func (c *Cache) Invalidate(ctx context.Context, owner int64) error {
	if c == nil || c.store == nil {
		return nil
	}

	if err := c.store.Delete(ctx, cacheKey(owner)); err != nil {
		return fmt.Errorf("invalidate cached ignore list: %w", err)
	}

	return nil
}

func cacheKey(owner int64) string {
	return fmt.Sprintf("ignore:%d", owner)
}
