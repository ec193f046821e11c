package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	apperrors "github.com/utafrali/catalog-search/pkg/errors"

	"github.com/utafrali/catalog-search/internal/cache"
	"github.com/utafrali/catalog-search/internal/domain"
	"github.com/utafrali/catalog-search/internal/store"
)

// Suggestion caps per source field. The fixed 5/3/2 split keeps one field
// from dominating the suggestion list; caps apply before dedup so the
// priority order stays deterministic.
const (
	titleSuggestionCap    = 5
	categorySuggestionCap = 3
	brandSuggestionCap    = 2
)

// topRatedThreshold is the minimum rating for the top-rated listing.
const topRatedThreshold = 4.5

// browseSort orders category/brand browsing and the top-rated listing:
// best-rated first, cheapest first among equals.
var browseSort = []store.SortKey{
	{Field: store.SortFieldRating, Desc: true},
	{Field: store.SortFieldPrice},
}

// SearchService executes relevance-ranked search over the product store,
// fronted by the cache-aside layer.
type SearchService struct {
	store  store.ProductStore
	cache  *cache.Cache
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(st store.ProductStore, c *cache.Cache, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  st,
		cache:  c,
		logger: logger,
	}
}

// Search runs a weighted multi-field search and returns one result page.
// The caller guarantees a non-empty query and in-range page/perPage; the
// query is trimmed and case-folded here before matching.
func (s *SearchService) Search(ctx context.Context, query string, page, perPage int, sortBy string) (*domain.SearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if sortBy == "" {
		sortBy = domain.SortRelevance
	}

	key := cache.SearchKey(normalized, page, perPage, sortBy)
	if cached := s.cache.GetSearch(ctx, key); cached != nil {
		return cached, nil
	}

	ranked, err := s.rankByRelevance(ctx, normalized)
	if err != nil {
		return nil, err
	}

	// A non-relevance sort replaces the relevance ordering entirely.
	if sortBy != domain.SortRelevance {
		applySort(ranked, sortBy)
	}

	total := len(ranked)
	offset := (page - 1) * perPage
	if offset > total {
		offset = total
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	products := make([]domain.Product, 0, end-offset)
	for _, r := range ranked[offset:end] {
		products = append(products, r.Product)
	}

	result := domain.NewSearchResult(products, total, page, perPage)
	s.cache.SetSearch(ctx, key, result)

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", normalized),
		slog.String("sort", sortBy),
		slog.Int("total", total),
	)

	return result, nil
}

// rankByRelevance queries the store once per searchable field in descending
// weight order. A product is scored by the first (highest-weight) field that
// matched it; later matches of the same product are dropped, so every
// identifier appears at most once. Ties on score break on rating, descending.
func (s *SearchService) rankByRelevance(ctx context.Context, query string) ([]domain.RelevanceScore, error) {
	seen := make(map[string]struct{})
	ranked := make([]domain.RelevanceScore, 0)

	for _, field := range domain.SearchFields() {
		matches, err := s.store.MatchSubstring(ctx, field, query)
		if err != nil {
			return nil, apperrors.StoreUnavailable(fmt.Errorf("match %s: %w", field, err))
		}

		weight := domain.FieldWeight(field)
		for _, p := range matches {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			ranked = append(ranked, domain.RelevanceScore{
				Product:      p,
				Score:        weight,
				MatchedField: field,
			})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Product.Rating > ranked[j].Product.Rating
	})

	return ranked, nil
}

// applySort re-sorts the ranked list by the requested key, discarding the
// relevance order.
func applySort(ranked []domain.RelevanceScore, sortBy string) {
	switch sortBy {
	case domain.SortPriceAsc:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Product.Price < ranked[j].Product.Price
		})
	case domain.SortPriceDesc:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Product.Price > ranked[j].Product.Price
		})
	case domain.SortRatingDesc:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Product.Rating > ranked[j].Product.Rating
		})
	case domain.SortNewest:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Product.CreatedAt.After(ranked[j].Product.CreatedAt)
		})
	}
}

// Suggest returns up to limit distinct autocomplete strings for the given
// prefix, drawn from titles, categories and brands in that priority order.
func (s *SearchService) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	key := cache.SuggestionKey(prefix, limit)
	if cached, ok := s.cache.GetSuggestions(ctx, key); ok {
		return cached, nil
	}

	sources := []struct {
		field domain.Field
		cap   int
	}{
		{domain.FieldTitle, titleSuggestionCap},
		{domain.FieldCategory, categorySuggestionCap},
		{domain.FieldBrand, brandSuggestionCap},
	}

	combined := make([]string, 0, titleSuggestionCap+categorySuggestionCap+brandSuggestionCap)
	for _, src := range sources {
		values, err := s.store.DistinctPrefix(ctx, src.field, prefix)
		if err != nil {
			return nil, apperrors.StoreUnavailable(fmt.Errorf("distinct %s: %w", src.field, err))
		}
		if len(values) > src.cap {
			values = values[:src.cap]
		}
		combined = append(combined, values...)
	}

	seen := make(map[string]struct{}, len(combined))
	suggestions := make([]string, 0, len(combined))
	for _, v := range combined {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		suggestions = append(suggestions, v)
		if len(suggestions) == limit {
			break
		}
	}

	s.cache.SetSuggestions(ctx, key, suggestions)
	return suggestions, nil
}

// ProductsByCategory lists products in a category, best-rated then cheapest
// first. Browse paths hit the store directly; they bypass the cache.
func (s *SearchService) ProductsByCategory(ctx context.Context, category string, page, perPage int) (*domain.SearchResult, error) {
	return s.browse(ctx, domain.FieldCategory, category, page, perPage)
}

// ProductsByBrand lists products of a brand, best-rated then cheapest first.
func (s *SearchService) ProductsByBrand(ctx context.Context, brand string, page, perPage int) (*domain.SearchResult, error) {
	return s.browse(ctx, domain.FieldBrand, brand, page, perPage)
}

func (s *SearchService) browse(ctx context.Context, field domain.Field, value string, page, perPage int) (*domain.SearchResult, error) {
	offset := (page - 1) * perPage

	products, err := s.store.FindExact(ctx, field, value, browseSort, offset, perPage)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("browse %s: %w", field, err))
	}

	total, err := s.store.CountExact(ctx, field, value)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("count %s: %w", field, err))
	}

	return domain.NewSearchResult(products, total, page, perPage), nil
}

// TopRatedProducts returns up to limit products rated 4.5 or higher,
// best-rated then cheapest first.
func (s *SearchService) TopRatedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	products, err := s.store.FindByMinRating(ctx, topRatedThreshold, browseSort, limit)
	if err != nil {
		return nil, apperrors.StoreUnavailable(fmt.Errorf("top rated: %w", err))
	}
	return products, nil
}
