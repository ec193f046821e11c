package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/catalog-search/internal/domain"
	"github.com/utafrali/catalog-search/internal/store"
)

const duplicateKeyCode = 11000

// Store implements store.ProductStore on a MongoDB collection.
type Store struct {
	col *mongo.Collection
}

// New creates a MongoDB-backed product store over the given database.
func New(db *mongo.Database, collection string) *Store {
	return &Store{col: db.Collection(collection)}
}

// EnsureIndexes provisions the unique SKU index and the browse-path indexes.
// Safe to call on every startup; Mongo treats existing indexes as a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}, {Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "price", Value: 1}}},
	}
	if _, err := s.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

// literalRegex builds a case-insensitive regex filter that matches the given
// text literally. QuoteMeta keeps user input from being interpreted as a
// pattern.
func literalRegex(text string, anchored bool) bson.M {
	pattern := regexp.QuoteMeta(text)
	if anchored {
		pattern = "^" + pattern
	}
	return bson.M{"$regex": pattern, "$options": "i"}
}

// MatchSubstring returns products whose field contains query, case-insensitively.
func (s *Store) MatchSubstring(ctx context.Context, field domain.Field, query string) ([]domain.Product, error) {
	cur, err := s.col.Find(ctx, bson.M{string(field): literalRegex(query, false)})
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", field, err)
	}
	return decodeAll(ctx, cur)
}

// FindExact returns products whose field equals value, sorted and windowed.
func (s *Store) FindExact(ctx context.Context, field domain.Field, value string, sortKeys []store.SortKey, offset, limit int) ([]domain.Product, error) {
	opts := options.Find().
		SetSort(sortDoc(sortKeys)).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, bson.M{string(field): value}, opts)
	if err != nil {
		return nil, fmt.Errorf("find by %s: %w", field, err)
	}
	return decodeAll(ctx, cur)
}

// CountExact counts products whose field equals value.
func (s *Store) CountExact(ctx context.Context, field domain.Field, value string) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{string(field): value})
	if err != nil {
		return 0, fmt.Errorf("count by %s: %w", field, err)
	}
	return int(n), nil
}

// DistinctPrefix returns distinct field values starting with prefix.
func (s *Store) DistinctPrefix(ctx context.Context, field domain.Field, prefix string) ([]string, error) {
	raw, err := s.col.Distinct(ctx, string(field), bson.M{string(field): literalRegex(prefix, true)})
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok && str != "" {
			values = append(values, str)
		}
	}
	return values, nil
}

// FindByMinRating returns products rated at or above min, sorted and truncated.
func (s *Store) FindByMinRating(ctx context.Context, min float64, sortKeys []store.SortKey, limit int) ([]domain.Product, error) {
	opts := options.Find().
		SetSort(sortDoc(sortKeys)).
		SetLimit(int64(limit))

	cur, err := s.col.Find(ctx, bson.M{"rating": bson.M{"$gte": min}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find by rating: %w", err)
	}
	return decodeAll(ctx, cur)
}

// Count returns the total number of products in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return int(n), nil
}

// BulkInsert writes a batch with an unordered InsertMany. Duplicate-key
// write errors are classified into the outcome; any other write error fails
// the whole batch.
func (s *Store) BulkInsert(ctx context.Context, products []domain.Product) (store.BulkOutcome, error) {
	docs := make([]interface{}, len(products))
	for i := range products {
		docs[i] = products[i]
	}

	res, err := s.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			duplicates := 0
			for _, we := range bwe.WriteErrors {
				if we.Code != duplicateKeyCode {
					return store.BulkOutcome{}, fmt.Errorf("bulk insert: %w", err)
				}
				duplicates++
			}
			return store.BulkOutcome{
				Inserted:   len(products) - duplicates,
				Duplicates: duplicates,
			}, nil
		}
		return store.BulkOutcome{}, fmt.Errorf("bulk insert: %w", err)
	}

	return store.BulkOutcome{Inserted: len(res.InsertedIDs)}, nil
}

// DeleteAll removes every product and returns the deleted count.
func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete all products: %w", err)
	}
	return int(res.DeletedCount), nil
}

func sortDoc(keys []store.SortKey) bson.D {
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: k.Field, Value: dir})
	}
	return doc
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Product, error) {
	defer cur.Close(ctx)

	products := make([]domain.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
