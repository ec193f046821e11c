package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() Product {
	return Product{
		ID:          "p1",
		Title:       "Wireless Mouse",
		Brand:       "Logi",
		Category:    "Accessories",
		ProductType: "mouse",
		Price:       29.99,
		Currency:    "USD",
		Stock:       10,
		SKU:         "LOGI-M-001",
		Rating:      4.2,
	}
}

func TestProduct_Validate_Valid(t *testing.T) {
	p := validProduct()
	assert.NoError(t, p.Validate())
}

func TestProduct_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Product)
		want   string
	}{
		{"missing title", func(p *Product) { p.Title = "" }, "title is required"},
		{"missing brand", func(p *Product) { p.Brand = "" }, "brand is required"},
		{"missing category", func(p *Product) { p.Category = "" }, "category is required"},
		{"missing product type", func(p *Product) { p.ProductType = "" }, "product_type is required"},
		{"missing sku", func(p *Product) { p.SKU = "" }, "sku is required"},
		{"negative price", func(p *Product) { p.Price = -1 }, "price must not be negative"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock must not be negative"},
		{"rating above five", func(p *Product) { p.Rating = 5.5 }, "rating must be between 0 and 5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validProduct()
			tc.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSearchFields_DescendingWeightOrder(t *testing.T) {
	fields := SearchFields()
	require.Len(t, fields, 5)

	for i := 1; i < len(fields); i++ {
		assert.Greater(t, FieldWeight(fields[i-1]), FieldWeight(fields[i]))
	}
}

func TestFieldWeight(t *testing.T) {
	assert.Equal(t, 5, FieldWeight(FieldTitle))
	assert.Equal(t, 4, FieldWeight(FieldCategory))
	assert.Equal(t, 3, FieldWeight(FieldBrand))
	assert.Equal(t, 2, FieldWeight(FieldSKU))
	assert.Equal(t, 1, FieldWeight(FieldProductType))
	assert.Equal(t, 0, FieldWeight(Field("description")))
}

func TestIsValidSort(t *testing.T) {
	for _, s := range ValidSortOptions() {
		assert.True(t, IsValidSort(s), s)
	}
	assert.False(t, IsValidSort("alphabetical"))
	assert.False(t, IsValidSort(""))
}

func TestNewSearchResult_TotalPagesRoundsUp(t *testing.T) {
	r := NewSearchResult([]Product{}, 21, 1, 10)
	assert.Equal(t, 3, r.TotalPages)

	r = NewSearchResult([]Product{}, 20, 1, 10)
	assert.Equal(t, 2, r.TotalPages)

	r = NewSearchResult([]Product{}, 0, 1, 10)
	assert.Equal(t, 0, r.TotalPages)
}

func TestNewSearchResult_NilProductsBecomesEmptySlice(t *testing.T) {
	r := NewSearchResult(nil, 0, 1, 10)
	require.NotNil(t, r.Products)
	assert.Empty(t, r.Products)
}
