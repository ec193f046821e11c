package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/catalog-search/internal/domain"
)

// ErrNotFound is returned by backends when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Key prefixes. Invalidation after a catalog mutation drops every entry
// under both prefixes.
const (
	SearchKeyPrefix     = "search:"
	SuggestionKeyPrefix = "autocomplete:"
)

// Backend is the narrow contract the cache-aside layer needs from the cache
// medium: string get/set with expiry and key enumeration by prefix.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Cache hits by entry kind",
		},
		[]string{"kind"},
	)
	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Cache misses by entry kind",
		},
		[]string{"kind"},
	)
	cacheDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_degraded_total",
			Help: "Cache operations degraded to a miss because the backend failed",
		},
		[]string{"op"},
	)
)

// Cache fronts search results and autocomplete suggestions with a fixed TTL.
// Every backend failure degrades to a miss: it is logged, counted, and never
// surfaced to the caller.
type Cache struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates a cache-aside layer over the given backend.
func New(backend Backend, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
}

// SearchKey derives the deterministic cache key for a search invocation.
// Query and sort are case-normalized so textually-equal queries collide.
func SearchKey(query string, page, perPage int, sortBy string) string {
	if sortBy == "" {
		sortBy = domain.SortRelevance
	}
	q := strings.ToLower(strings.TrimSpace(query))
	return fmt.Sprintf("%s%s:%d:%d:%s", SearchKeyPrefix, q, page, perPage, strings.ToLower(sortBy))
}

// SuggestionKey derives the cache key for an autocomplete prefix.
func SuggestionKey(prefix string, limit int) string {
	return fmt.Sprintf("%s%s:%d", SuggestionKeyPrefix, strings.ToLower(strings.TrimSpace(prefix)), limit)
}

// GetSearch returns the cached result for key, or nil on a miss. Backend
// failures and undecodable entries degrade to a miss.
func (c *Cache) GetSearch(ctx context.Context, key string) *domain.SearchResult {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		c.miss(ctx, "search", "get", err)
		return nil
	}

	var result domain.SearchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.miss(ctx, "search", "decode", err)
		return nil
	}

	cacheHits.WithLabelValues("search").Inc()
	return &result
}

// SetSearch stores a search result under key with the configured TTL.
func (c *Cache) SetSearch(ctx context.Context, key string, result *domain.SearchResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.degraded(ctx, "encode", err)
		return
	}
	if err := c.backend.Set(ctx, key, string(data), c.ttl); err != nil {
		c.degraded(ctx, "set", err)
	}
}

// GetSuggestions returns the cached suggestion list for key. The second
// return value distinguishes a miss from a cached empty list.
func (c *Cache) GetSuggestions(ctx context.Context, key string) ([]string, bool) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		c.miss(ctx, "suggestions", "get", err)
		return nil, false
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(raw), &suggestions); err != nil {
		c.miss(ctx, "suggestions", "decode", err)
		return nil, false
	}

	cacheHits.WithLabelValues("suggestions").Inc()
	return suggestions, true
}

// SetSuggestions stores a suggestion list under key with the configured TTL.
func (c *Cache) SetSuggestions(ctx context.Context, key string, suggestions []string) {
	if suggestions == nil {
		suggestions = []string{}
	}
	data, err := json.Marshal(suggestions)
	if err != nil {
		c.degraded(ctx, "encode", err)
		return
	}
	if err := c.backend.Set(ctx, key, string(data), c.ttl); err != nil {
		c.degraded(ctx, "set", err)
	}
}

// Invalidate drops every entry whose key starts with one of the given
// prefixes. Failures are logged and swallowed; stale entries then age out
// via TTL.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	for _, prefix := range prefixes {
		deleted, err := c.backend.DeleteByPrefix(ctx, prefix)
		if err != nil {
			c.degraded(ctx, "invalidate", err)
			continue
		}
		c.logger.InfoContext(ctx, "cache invalidated",
			slog.String("prefix", prefix),
			slog.Int("deleted", deleted),
		)
	}
}

func (c *Cache) miss(ctx context.Context, kind, op string, err error) {
	cacheMisses.WithLabelValues(kind).Inc()
	if !errors.Is(err, ErrNotFound) {
		c.degraded(ctx, op, err)
	}
}

func (c *Cache) degraded(ctx context.Context, op string, err error) {
	cacheDegraded.WithLabelValues(op).Inc()
	c.logger.WarnContext(ctx, "cache degraded to miss",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
