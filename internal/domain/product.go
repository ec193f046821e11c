package domain

import (
	"fmt"
	"time"
)

// Product is a single catalog record. ID and SKU are each globally unique
// across the store; uniqueness of SKU is enforced by the store itself.
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Brand       string    `json:"brand" bson:"brand"`
	Category    string    `json:"category" bson:"category"`
	ProductType string    `json:"product_type" bson:"product_type"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Currency    string    `json:"currency" bson:"currency"`
	Stock       int       `json:"stock" bson:"stock"`
	SKU         string    `json:"sku" bson:"sku"`
	Rating      float64   `json:"rating" bson:"rating"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Validate checks the invariants a product must satisfy before it may be
// persisted. A record missing any of the required text fields is invalid.
func (p *Product) Validate() error {
	switch {
	case p.Title == "":
		return fmt.Errorf("product %s: title is required", p.SKU)
	case p.Brand == "":
		return fmt.Errorf("product %s: brand is required", p.SKU)
	case p.Category == "":
		return fmt.Errorf("product %s: category is required", p.SKU)
	case p.ProductType == "":
		return fmt.Errorf("product %s: product_type is required", p.SKU)
	case p.SKU == "":
		return fmt.Errorf("product: sku is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product %s: price must not be negative", p.SKU)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product %s: stock must not be negative", p.SKU)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("product %s: rating must be between 0 and 5", p.SKU)
	}
	return nil
}

// Field identifies a searchable product field.
type Field string

const (
	FieldTitle       Field = "title"
	FieldCategory    Field = "category"
	FieldBrand       Field = "brand"
	FieldSKU         Field = "sku"
	FieldProductType Field = "product_type"
)

// SearchFields lists the searchable fields in descending weight order.
// A product's relevance score is the weight of the highest-weighted field
// it matches, and matched-field attribution follows the same order.
func SearchFields() []Field {
	return []Field{FieldTitle, FieldCategory, FieldBrand, FieldSKU, FieldProductType}
}

// FieldWeight returns the fixed relevance weight of a searchable field.
func FieldWeight(f Field) int {
	switch f {
	case FieldTitle:
		return 5
	case FieldCategory:
		return 4
	case FieldBrand:
		return 3
	case FieldSKU:
		return 2
	case FieldProductType:
		return 1
	default:
		return 0
	}
}

// RelevanceScore ties a product to the score it earned during one search
// invocation. It is never persisted.
type RelevanceScore struct {
	Product      Product `json:"product"`
	Score        int     `json:"score"`
	MatchedField Field   `json:"matched_field"`
}

// Sort options for search results.
const (
	SortRelevance  = "relevance"
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating"
	SortNewest     = "newest"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNewest}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// SearchResult holds one page of products plus pagination metadata.
// TotalPages is zero when Total is zero.
type SearchResult struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// NewSearchResult builds a SearchResult computing TotalPages from the
// pre-pagination total.
func NewSearchResult(products []Product, total, page, perPage int) *SearchResult {
	if products == nil {
		products = []Product{}
	}
	totalPages := 0
	if perPage > 0 {
		totalPages = total / perPage
		if total%perPage > 0 {
			totalPages++
		}
	}
	return &SearchResult{
		Products:   products,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

// LoadReport aggregates the outcome of one ingestion run. Inserted,
// Duplicates and Errors partition the validated input record count.
type LoadReport struct {
	Success    bool    `json:"success"`
	Inserted   int     `json:"inserted"`
	Duplicates int     `json:"duplicates"`
	Errors     int     `json:"errors"`
	Duration   float64 `json:"duration_seconds"`
}
