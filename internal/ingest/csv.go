// Package ingest parses bulk catalog data files into validated product
// records ready for the ingestion coordinator.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/utafrali/catalog-search/internal/domain"
)

// ParseResult reports the outcome of parsing one data file.
type ParseResult struct {
	Products []domain.Product
	Rows     int // data rows read, excluding the header
	Skipped  int // rows dropped for failing validation
}

// ParseCSV reads a comma-separated product file. The first row is a header;
// column names are matched case-insensitively with spaces and dashes treated
// as underscores, so "Product Type", "product-type" and "product_type" are
// equivalent. Rows missing any of title, brand, category, product_type or
// sku are skipped and counted, never failing the whole file.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	return parse(r, ',')
}

// ParseTSV reads a tab-separated product file with the same row semantics
// as ParseCSV.
func ParseTSV(r io.Reader) (*ParseResult, error) {
	return parse(r, '\t')
}

func parse(r io.Reader, comma rune) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("parse catalog file: missing header row")
		}
		return nil, fmt.Errorf("parse catalog file header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeColumn(name)] = i
	}

	result := &ParseResult{Products: make([]domain.Product, 0)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse catalog file row %d: %w", result.Rows+1, err)
		}
		result.Rows++

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		product := domain.Product{
			Title:       cell("title"),
			Brand:       cell("brand"),
			Category:    cell("category"),
			ProductType: cell("product_type"),
			Description: cell("description"),
			SKU:         cell("sku"),
			Currency:    cell("currency"),
			Price:       parsePrice(cell("price")),
			Stock:       parseInt(cell("stock")),
			Rating:      parseRating(cell("rating")),
		}

		if err := product.Validate(); err != nil {
			result.Skipped++
			continue
		}
		result.Products = append(result.Products, product)
	}

	return result, nil
}

func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// parsePrice strips currency symbols and thousands separators before
// parsing, so "$1,299.99" becomes 1299.99. Unparseable values become zero.
func parsePrice(raw string) float64 {
	if raw == "" {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, raw)

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return price
}

func parseInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// parseRating clamps out-of-range values to zero rather than dropping the
// row; rating is informational, not a required field.
func parseRating(raw string) float64 {
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0
	}
	return rating
}
