package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/catalog-search/internal/cache"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Backend is an in-memory implementation of cache.Backend, used in tests and
// when the service runs without Redis. Thread-safe via sync.RWMutex.
type Backend struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty in-memory cache backend.
func New() *Backend {
	return &Backend{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get retrieves the value at key, honoring expiry.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok || b.now().After(e.expiresAt) {
		return "", cache.ErrNotFound
	}
	return e.value, nil
}

// Set stores value at key with the given TTL.
func (b *Backend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = entry{value: value, expiresAt: b.now().Add(ttl)}
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (b *Backend) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	deleted := 0
	for k := range b.entries {
		if strings.HasPrefix(k, prefix) {
			delete(b.entries, k)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of live entries, for tests.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
