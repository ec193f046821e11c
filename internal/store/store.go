package store

import (
	"context"

	"github.com/utafrali/catalog-search/internal/domain"
)

// SortKey names a product field and direction for ordered retrieval.
// Keys compose: a two-element slice means primary then secondary sort.
type SortKey struct {
	Field string
	Desc  bool
}

// Sortable field names accepted by implementations.
const (
	SortFieldRating    = "rating"
	SortFieldPrice     = "price"
	SortFieldCreatedAt = "created_at"
)

// BulkOutcome reports the per-record classification of one unordered bulk
// write: records rejected by the unique-key constraint count as duplicates,
// everything else in the batch was inserted.
type BulkOutcome struct {
	Inserted   int
	Duplicates int
}

// ProductStore is the persistence contract required by the search engine
// and the ingestion coordinator. Implementations must treat substring and
// prefix arguments as literal text, never as patterns.
type ProductStore interface {
	// MatchSubstring returns every product whose named field contains the
	// query as a case-insensitive substring.
	MatchSubstring(ctx context.Context, field domain.Field, query string) ([]domain.Product, error)

	// FindExact returns products whose named field equals value, ordered by
	// the given sort keys, windowed by offset and limit.
	FindExact(ctx context.Context, field domain.Field, value string, sort []SortKey, offset, limit int) ([]domain.Product, error)

	// CountExact counts products whose named field equals value.
	CountExact(ctx context.Context, field domain.Field, value string) (int, error)

	// DistinctPrefix returns the distinct values of the named field that
	// start with prefix, compared case-insensitively.
	DistinctPrefix(ctx context.Context, field domain.Field, prefix string) ([]string, error)

	// FindByMinRating returns products rated at or above min, ordered by the
	// given sort keys, truncated to limit.
	FindByMinRating(ctx context.Context, min float64, sort []SortKey, limit int) ([]domain.Product, error)

	// Count returns the total number of products in the store.
	Count(ctx context.Context) (int, error)

	// BulkInsert writes a batch unordered. Duplicate-key rejections are
	// classified in the returned outcome; any other failure returns an error
	// and the whole batch must be considered failed.
	BulkInsert(ctx context.Context, products []domain.Product) (BulkOutcome, error)

	// DeleteAll removes every product and returns the deleted count.
	DeleteAll(ctx context.Context) (int, error)
}
