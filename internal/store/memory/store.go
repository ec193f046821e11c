package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/utafrali/catalog-search/internal/domain"
	"github.com/utafrali/catalog-search/internal/store"
)

// Store is an in-memory implementation of store.ProductStore, used in tests
// and as the development fallback when no MongoDB is available.
// Thread-safe via sync.RWMutex.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	skus     map[string]string // sku -> product ID
}

// New creates an empty in-memory product store.
func New() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		skus:     make(map[string]string),
	}
}

func fieldValue(p domain.Product, field domain.Field) string {
	switch field {
	case domain.FieldTitle:
		return p.Title
	case domain.FieldCategory:
		return p.Category
	case domain.FieldBrand:
		return p.Brand
	case domain.FieldSKU:
		return p.SKU
	case domain.FieldProductType:
		return p.ProductType
	default:
		return ""
	}
}

// MatchSubstring returns products whose field contains query, case-insensitively.
func (s *Store) MatchSubstring(_ context.Context, field domain.Field, query string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryLower := strings.ToLower(query)
	matched := make([]domain.Product, 0)
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(fieldValue(p, field)), queryLower) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// FindExact returns products whose field equals value, sorted and windowed.
func (s *Store) FindExact(_ context.Context, field domain.Field, value string, sortKeys []store.SortKey, offset, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	matched := make([]domain.Product, 0)
	for _, p := range s.products {
		if fieldValue(p, field) == value {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sortProducts(matched, sortKeys)
	return window(matched, offset, limit), nil
}

// CountExact counts products whose field equals value.
func (s *Store) CountExact(_ context.Context, field domain.Field, value string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.products {
		if fieldValue(p, field) == value {
			count++
		}
	}
	return count, nil
}

// DistinctPrefix returns distinct field values starting with prefix.
func (s *Store) DistinctPrefix(_ context.Context, field domain.Field, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefixLower := strings.ToLower(prefix)
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, p := range s.products {
		v := fieldValue(p, field)
		if !strings.HasPrefix(strings.ToLower(v), prefixLower) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	// Distinct queries return values in lexical order.
	sort.Strings(values)
	return values, nil
}

// FindByMinRating returns products rated at or above min, sorted and truncated.
func (s *Store) FindByMinRating(_ context.Context, min float64, sortKeys []store.SortKey, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	matched := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.Rating >= min {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sortProducts(matched, sortKeys)
	return window(matched, 0, limit), nil
}

// Count returns the total number of stored products.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), nil
}

// BulkInsert writes a batch, classifying ID/SKU collisions as duplicates.
func (s *Store) BulkInsert(_ context.Context, products []domain.Product) (store.BulkOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out store.BulkOutcome
	for _, p := range products {
		if _, exists := s.products[p.ID]; exists {
			out.Duplicates++
			continue
		}
		if _, exists := s.skus[p.SKU]; exists {
			out.Duplicates++
			continue
		}
		s.products[p.ID] = p
		s.skus[p.SKU] = p.ID
		out.Inserted++
	}
	return out, nil
}

// DeleteAll removes every product and returns the deleted count.
func (s *Store) DeleteAll(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := len(s.products)
	s.products = make(map[string]domain.Product)
	s.skus = make(map[string]string)
	return deleted, nil
}

func sortProducts(products []domain.Product, keys []store.SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(products, func(i, j int) bool {
		for _, k := range keys {
			var less, more bool
			switch k.Field {
			case store.SortFieldRating:
				less, more = products[i].Rating < products[j].Rating, products[i].Rating > products[j].Rating
			case store.SortFieldPrice:
				less, more = products[i].Price < products[j].Price, products[i].Price > products[j].Price
			case store.SortFieldCreatedAt:
				less = products[i].CreatedAt.Before(products[j].CreatedAt)
				more = products[i].CreatedAt.After(products[j].CreatedAt)
			}
			if !less && !more {
				continue
			}
			if k.Desc {
				return more
			}
			return less
		}
		return false
	})
}

func window(products []domain.Product, offset, limit int) []domain.Product {
	if offset < 0 {
		offset = 0
	}
	if offset > len(products) {
		offset = len(products)
	}
	end := len(products)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return products[offset:end]
}
