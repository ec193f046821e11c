package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bulkBody(t *testing.T, products []ProductRequest) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(BulkLoadRequest{Products: products}))
	return &buf
}

func validRequest() ProductRequest {
	return ProductRequest{
		Title:       "Polo Shirt",
		Brand:       "Acme",
		Category:    "Tops",
		ProductType: "shirt",
		Price:       29.99,
		SKU:         "SKU-1",
		Rating:      4.5,
	}
}

func TestBulkLoadEndpoint_OK(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/bulk", bulkBody(t, []ProductRequest{validRequest()}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, float64(1), data["inserted"])
	assert.Equal(t, true, data["success"])
}

func TestBulkLoadEndpoint_DuplicateRerun(t *testing.T) {
	router := newTestRouter(t)

	for i, wantInserted := range []float64{1, 0} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/bulk", bulkBody(t, []ProductRequest{validRequest()}))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, "run %d", i)
		data := decodeData(t, rec)
		assert.Equal(t, wantInserted, data["inserted"], "run %d", i)
	}
}

func TestBulkLoadEndpoint_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	invalid := validRequest()
	invalid.Title = ""

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/bulk", bulkBody(t, []ProductRequest{invalid}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestBulkLoadEndpoint_EmptyProductList(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/bulk", bulkBody(t, []ProductRequest{}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkLoadEndpoint_WrongContentType(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/bulk", strings.NewReader("title,brand"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestLoadFileEndpoint_CSV(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "catalog.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Join([]string{
		"title,brand,category,product_type,sku,price,rating",
		"Polo Shirt,Acme,Tops,shirt,SKU-1,29.99,4.5",
		",Acme,Tops,shirt,SKU-2,10,4.0",
	}, "\n")))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/load", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, float64(2), data["rows"])
	assert.Equal(t, float64(1), data["skipped_rows"])

	report := data["report"].(map[string]any)
	assert.Equal(t, float64(1), report["inserted"])
}

func TestLoadFileEndpoint_MissingFile(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/load", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file")
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t, catalogFixture()...)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeData(t, rec)["total_products"])
}

func TestClearEndpoint(t *testing.T) {
	router := newTestRouter(t, catalogFixture()...)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/catalog/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeData(t, rec)["deleted"])

	// Stats afterwards reflects the empty catalog.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/catalog/stats", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeData(t, rec)["total_products"])
}

func TestClearThenSearch_NoStaleCache(t *testing.T) {
	router := newTestRouter(t, catalogFixture()...)

	// Warm the cache.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=polo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(2), decodeData(t, rec)["total"])

	// Clear invalidates the cached search result.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/catalog/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search?q=polo", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeData(t, rec)["total"])
}
