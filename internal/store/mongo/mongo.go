// Package mongo stores opportunities in a MongoDB collection with a
// unique index on the natural key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/MrSnakeDoc/opphub/internal/connect"
	"github.com/MrSnakeDoc/opphub/internal/domain"
	"github.com/MrSnakeDoc/opphub/internal/logger"
	"github.com/MrSnakeDoc/opphub/internal/store"
)

// CollectionName is the opportunities collection.
const CollectionName = "opportunities"

// sortCollation makes string sorts case-insensitive like the in-memory store.
var sortCollation = &options.Collation{Locale: "en", Strength: 2}

// Options configures the connection.
type Options struct {
	URI      string
	Database string
	Retry    connect.Options
}

type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ store.OpportunityStore = (*Store)(nil)

// Open connects, waits for the server with backoff and ensures indexes.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	if err := connect.Retry("mongo", opts.Database, opts.Retry, ping, log); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &Store{
		client: client,
		coll:   client.Database(opts.Database).Collection(CollectionName),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the natural-key unique index and the listing indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}, {Key: "organization", Value: 1}, {Key: "deadline", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("natural_key"),
		},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.Opportunity, error) {
	var doc document
	err := s.coll.FindOne(ctx, naturalKeyFilter(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find opportunity: %w", err)
	}
	o := doc.toDomain()
	return &o, nil
}

func (s *Store) Insert(ctx context.Context, o *domain.Opportunity) error {
	doc, err := toDocument(*o)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", o.ID, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}
	o.ID = doc.ID.Hex()
	return nil
}

func (s *Store) Update(ctx context.Context, o *domain.Opportunity) error {
	doc, err := toDocument(*o)
	if err != nil || doc.ID.IsZero() {
		return fmt.Errorf("update %q: %w", o.ID, store.ErrNotFound)
	}

	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s: %w", o.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, store.ErrNotFound)
	}

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete opportunities: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) All(ctx context.Context) ([]domain.Opportunity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	return decodeAll(ctx, cur)
}

func (s *Store) List(ctx context.Context, q store.Query) (store.Page, error) {
	q = q.Normalize()

	total, err := s.coll.CountDocuments(ctx, listFilter(q))
	if err != nil {
		return store.Page{}, fmt.Errorf("failed to count opportunities: %w", err)
	}

	cur, err := s.coll.Aggregate(ctx, listPipeline(q), options.Aggregate().SetCollation(sortCollation))
	if err != nil {
		return store.Page{}, fmt.Errorf("failed to query opportunities: %w", err)
	}
	items, err := decodeAll(ctx, cur)
	if err != nil {
		return store.Page{}, err
	}

	categories, err := s.Distinct(ctx, store.FieldCategory)
	if err != nil {
		return store.Page{}, err
	}
	locations, err := s.Distinct(ctx, store.FieldLocation)
	if err != nil {
		return store.Page{}, err
	}

	return store.Page{
		Items:      items,
		Pagination: store.NewPagination(q, total),
		Filters:    store.Filters{Categories: categories, Locations: locations},
	}, nil
}

func (s *Store) Distinct(ctx context.Context, field string) ([]string, error) {
	if field != store.FieldCategory && field != store.FieldLocation {
		return nil, fmt.Errorf("distinct: unsupported field %q", field)
	}

	values, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to read distinct %s: %w", field, err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	sort.Strings(out)
	return out, nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Opportunity, error) {
	defer func() { _ = cur.Close(ctx) }()

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode opportunities: %w", err)
	}

	out := make([]domain.Opportunity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
