package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/utafrali/catalog-search/internal/domain"
	"github.com/utafrali/catalog-search/internal/ingest"
	"github.com/utafrali/catalog-search/internal/service"
	"github.com/utafrali/catalog-search/pkg/httputil"
	"github.com/utafrali/catalog-search/pkg/validator"
)

// maxUploadBytes caps the size of a catalog data file upload.
const maxUploadBytes = 50 << 20

// CatalogHandler handles HTTP requests for catalog ingestion endpoints.
type CatalogHandler struct {
	service *service.IngestService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.IngestService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// ProductRequest is the JSON representation of one product to ingest.
type ProductRequest struct {
	ID          string  `json:"id"`
	Title       string  `json:"title" validate:"required,min=1"`
	Brand       string  `json:"brand" validate:"required,min=1"`
	Category    string  `json:"category" validate:"required,min=1"`
	ProductType string  `json:"product_type" validate:"required,min=1"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency"`
	Stock       int     `json:"stock" validate:"gte=0"`
	SKU         string  `json:"sku" validate:"required,min=1"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// BulkLoadRequest is the JSON request body for bulk-loading products.
type BulkLoadRequest struct {
	Products []ProductRequest `json:"products" validate:"required,min=1,max=10000,dive"`
}

func (r ProductRequest) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Title:       r.Title,
		Brand:       r.Brand,
		Category:    r.Category,
		ProductType: r.ProductType,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		Stock:       r.Stock,
		SKU:         r.SKU,
		Rating:      r.Rating,
	}
}

// --- Handlers ---

// BulkLoad handles POST /api/v1/catalog/bulk
func (h *CatalogHandler) BulkLoad(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var req BulkLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	products := make([]domain.Product, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, p.toDomain())
	}

	report, err := h.service.LoadFromSource(r.Context(), products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// LoadFile handles POST /api/v1/catalog/load. The request is a multipart
// form with the catalog data under the "file" field; .tsv files are parsed
// tab-separated, anything else comma-separated.
func (h *CatalogHandler) LoadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "multipart field 'file' is required"},
		})
		return
	}
	defer file.Close()

	var parsed *ingest.ParseResult
	if strings.EqualFold(filepath.Ext(header.Filename), ".tsv") {
		parsed, err = ingest.ParseTSV(file)
	} else {
		parsed, err = ingest.ParseCSV(file)
	}
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
		})
		return
	}

	h.logger.InfoContext(r.Context(), "catalog file parsed",
		slog.String("filename", header.Filename),
		slog.Int("rows", parsed.Rows),
		slog.Int("skipped", parsed.Skipped),
	)

	report, err := h.service.LoadFromSource(r.Context(), parsed.Products)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"report":       report,
		"rows":         parsed.Rows,
		"skipped_rows": parsed.Skipped,
	}})
}

// Stats handles GET /api/v1/catalog/stats
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"total_products": total}})
}

// Clear handles DELETE /api/v1/catalog
func (h *CatalogHandler) Clear(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.ClearAll(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"deleted": deleted}})
}
