package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalog-search/internal/service"
	"github.com/utafrali/catalog-search/pkg/health"
	"github.com/utafrali/catalog-search/pkg/middleware"
)

// browseCacheMaxAge is the Cache-Control max-age for browse listings.
const browseCacheMaxAge = 60

// NewRouter creates a chi router with all catalog search routes registered.
func NewRouter(
	searchService *service.SearchService,
	ingestService *service.IngestService,
	healthHandler *health.Handler,
	corsConfig middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog-search"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	searchHandler := NewSearchHandler(searchService, logger)
	catalogHandler := NewCatalogHandler(ingestService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/suggest", searchHandler.Suggest)
			r.Get("/", searchHandler.Search)
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(browseCacheMaxAge))
			r.Get("/category/{category}", searchHandler.ProductsByCategory)
			r.Get("/brand/{brand}", searchHandler.ProductsByBrand)
			r.Get("/top-rated", searchHandler.TopRated)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/stats", catalogHandler.Stats)
			r.Delete("/", catalogHandler.Clear)
			r.Post("/load", catalogHandler.LoadFile)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/bulk", catalogHandler.BulkLoad)
			})
		})
	})

	return r
}
