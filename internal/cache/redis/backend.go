package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog-search/internal/cache"
)

// scanBatchSize bounds how many keys a single SCAN round-trip returns.
const scanBatchSize = 500

// Backend implements cache.Backend on a Redis client.
type Backend struct {
	client *redis.Client
}

// New creates a Redis cache backend.
func New(client *redis.Client) *Backend {
	return &Backend{client: client}
}

// Get retrieves the value stored at key. Absent keys map to cache.ErrNotFound.
func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", cache.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores value at key with the given TTL.
func (b *Backend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DeleteByPrefix removes every key starting with prefix using SCAN, so the
// server is never blocked the way KEYS would.
func (b *Backend) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	iter := b.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()

	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatchSize {
			n, err := b.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += int(n)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan: %w", err)
	}

	if len(keys) > 0 {
		n, err := b.client.Del(ctx, keys...).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis del: %w", err)
		}
		deleted += int(n)
	}
	return deleted, nil
}
