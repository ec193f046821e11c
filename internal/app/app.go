package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/utafrali/catalog-search/internal/cache"
	cachememory "github.com/utafrali/catalog-search/internal/cache/memory"
	cacheredis "github.com/utafrali/catalog-search/internal/cache/redis"
	"github.com/utafrali/catalog-search/internal/config"
	handler "github.com/utafrali/catalog-search/internal/handler/http"
	"github.com/utafrali/catalog-search/internal/service"
	"github.com/utafrali/catalog-search/internal/store"
	storememory "github.com/utafrali/catalog-search/internal/store/memory"
	storemongo "github.com/utafrali/catalog-search/internal/store/mongo"
	"github.com/utafrali/catalog-search/pkg/database"
	"github.com/utafrali/catalog-search/pkg/health"
	"github.com/utafrali/catalog-search/pkg/middleware"
)

// App wires together all dependencies and runs the catalog search service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	mongoClient *mongo.Client
	redisClient *redis.Client
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger}

	// Initialize the product store based on configuration.
	var productStore store.ProductStore
	switch cfg.StoreBackend {
	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, database.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("init mongodb: %w", err)
		}
		app.mongoClient = client

		st := storemongo.New(client.Database(cfg.MongoDatabase), cfg.MongoCollection)
		if err := st.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
		}
		productStore = st
		logger.Info("mongodb product store initialized",
			slog.String("database", cfg.MongoDatabase),
			slog.String("collection", cfg.MongoCollection),
		)
	default:
		productStore = storememory.New()
		logger.Info("in-memory product store initialized")
	}

	// Initialize the cache backend based on configuration.
	var backend cache.Backend
	switch cfg.CacheBackend {
	case config.CacheRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redisClient = client
		backend = cacheredis.New(client)
		logger.Info("redis cache backend initialized", slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)))
	default:
		backend = cachememory.New()
		logger.Info("in-memory cache backend initialized")
	}

	resultCache := cache.New(backend, cfg.CacheTTL(), logger)

	// Build the service layer.
	searchService := service.NewSearchService(productStore, resultCache, logger)
	ingestService := service.NewIngestService(productStore, resultCache, logger, cfg.IngestBatchSize)

	// Health checks. The store is critical; the cache degrades to miss, so
	// losing it never makes the service unready.
	healthHandler := health.NewHandler()
	if app.mongoClient != nil {
		healthHandler.RegisterCritical("mongodb", func(ctx context.Context) error {
			return app.mongoClient.Ping(ctx, readpref.Primary())
		})
	}
	if app.redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return app.redisClient.Ping(ctx).Err()
		})
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.Environment = cfg.Environment

	router := handler.NewRouter(searchService, ingestService, healthHandler, corsConfig, logger)

	app.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP server, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server and closes client connections.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
