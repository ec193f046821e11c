package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/catalog-search/pkg/errors"

	"github.com/utafrali/catalog-search/internal/cache"
	"github.com/utafrali/catalog-search/internal/domain"
	"github.com/utafrali/catalog-search/internal/store"
)

// DefaultBatchSize bounds how many records one bulk write carries.
const DefaultBatchSize = 1000

// IngestService writes validated product records into the store in bounded
// batches and keeps the cache coherent by invalidating search and suggestion
// entries after every run.
type IngestService struct {
	store     store.ProductStore
	cache     *cache.Cache
	logger    *slog.Logger
	batchSize int
}

// NewIngestService creates a new ingestion coordinator. A batchSize of zero
// or less falls back to DefaultBatchSize.
func NewIngestService(st store.ProductStore, c *cache.Cache, logger *slog.Logger, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IngestService{
		store:     st,
		cache:     c,
		logger:    logger,
		batchSize: batchSize,
	}
}

// LoadFromSource bulk-writes a validated record set and reports per-record
// outcomes plus elapsed wall time. Partial failures never abort the run: a
// duplicate key drops only that record, any other batch failure drops only
// that batch. Cache invalidation fires unconditionally at the end, even for
// a run that inserted nothing.
func (s *IngestService) LoadFromSource(ctx context.Context, products []domain.Product) (*domain.LoadReport, error) {
	if len(products) == 0 {
		return nil, apperrors.InvalidInput("ingestion input is empty")
	}

	start := time.Now()
	report := s.ingest(ctx, products)
	report.Duration = time.Since(start).Seconds()
	report.Success = report.Errors == 0

	s.logger.InfoContext(ctx, "ingestion run completed",
		slog.Int("inserted", report.Inserted),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("errors", report.Errors),
		slog.Float64("duration_seconds", report.Duration),
	)

	return report, nil
}

// BulkInsert writes a validated record set and returns how many records were
// actually inserted. Duplicates and failed batches are skipped silently; use
// LoadFromSource when the per-record breakdown matters.
func (s *IngestService) BulkInsert(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, apperrors.InvalidInput("ingestion input is empty")
	}

	report := s.ingest(ctx, products)
	return report.Inserted, nil
}

// ingest runs the batch loop and always invalidates both cache key prefixes
// afterwards. Even a run with zero insertions must invalidate: a prior
// clear-all may have emptied the store while cached results survived.
func (s *IngestService) ingest(ctx context.Context, products []domain.Product) *domain.LoadReport {
	now := time.Now().UTC()
	for i := range products {
		if products[i].ID == "" {
			products[i].ID = uuid.NewString()
		}
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = now
		}
	}

	report := &domain.LoadReport{}
	for i := 0; i < len(products); i += s.batchSize {
		end := i + s.batchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[i:end]

		out, err := s.store.BulkInsert(ctx, batch)
		if err != nil {
			// Terminal for this batch only; no retry. Subsequent batches
			// still proceed.
			report.Errors += len(batch)
			s.logger.ErrorContext(ctx, "batch insert failed",
				slog.Int("batch_start", i),
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()),
			)
			continue
		}

		report.Inserted += out.Inserted
		report.Duplicates += out.Duplicates
	}

	s.cache.Invalidate(ctx, cache.SearchKeyPrefix, cache.SuggestionKeyPrefix)
	return report
}

// ClearAll deletes every product, invalidates the cache, and returns the
// deleted count.
func (s *IngestService) ClearAll(ctx context.Context) (int, error) {
	deleted, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}

	s.cache.Invalidate(ctx, cache.SearchKeyPrefix, cache.SuggestionKeyPrefix)

	s.logger.InfoContext(ctx, "catalog cleared", slog.Int("deleted", deleted))
	return deleted, nil
}

// Stats reports the current catalog size.
func (s *IngestService) Stats(ctx context.Context) (int, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return 0, apperrors.StoreUnavailable(err)
	}
	return total, nil
}
