package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Walter66888/taifex-linebot-aggregator/internal/errs"
	"github.com/Walter66888/taifex-linebot-aggregator/internal/model"
)

const recordsCollection = "records"

var _ Store = (*MongoStore)(nil)

// MongoStore is the MongoDB-backed Store. One document per
// (dataset, trading_date), enforced by a unique compound index.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// NewMongoStore connects to the given MongoDB and ensures the unique
// identity index the upsert protocol relies on.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.NewStore("failed to connect to mongodb", err)
	}

	col := client.Database(dbName).Collection(recordsCollection)
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "dataset", Value: 1},
			{Key: "trading_date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.NewStore("failed to ensure identity index", err)
	}

	return &MongoStore{client: client, col: col}, nil
}

// Upsert performs a single atomic replace-with-upsert keyed on identity.
func (s *MongoStore) Upsert(ctx context.Context, rec model.CanonicalRecord, force bool) (UpsertResult, error) {
	filter := bson.D{
		{Key: "dataset", Value: rec.Dataset},
		{Key: "trading_date", Value: rec.TradingDate},
	}
	if !force {
		// Match only a document with different content. If an identical one
		// is already stored, the filter misses, the upsert tries to insert,
		// and the unique identity index rejects it: that duplicate-key error
		// is the atomic "unchanged" signal.
		filter = append(filter, bson.E{
			Key:   "source_checksum",
			Value: bson.D{{Key: "$ne", Value: rec.SourceChecksum}},
		})
	}

	res, err := s.col.ReplaceOne(ctx, filter, rec, options.Replace().SetUpsert(true))
	if err != nil {
		if !force && mongo.IsDuplicateKeyError(err) {
			return ResultUnchanged, nil
		}
		return ResultUnchanged, errs.NewStore("upsert failed", err)
	}

	if res.MatchedCount > 0 {
		return ResultUpdated, nil
	}
	return ResultInserted, nil
}

// Get returns the record for the exact identity, if stored.
func (s *MongoStore) Get(ctx context.Context, dataset model.Dataset, date time.Time) (model.CanonicalRecord, bool, error) {
	filter := bson.D{
		{Key: "dataset", Value: dataset},
		{Key: "trading_date", Value: model.DateOf(date)},
	}

	var rec model.CanonicalRecord
	err := s.col.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.CanonicalRecord{}, false, nil
	}
	if err != nil {
		return model.CanonicalRecord{}, false, errs.NewStore("read failed", err)
	}
	return rec, true, nil
}

// Latest returns the most recent record at or before asOf.
func (s *MongoStore) Latest(ctx context.Context, dataset model.Dataset, asOf time.Time) (model.CanonicalRecord, bool, error) {
	filter := bson.D{
		{Key: "dataset", Value: dataset},
		{Key: "trading_date", Value: bson.D{{Key: "$lte", Value: model.DateOf(asOf)}}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "trading_date", Value: -1}})

	var rec model.CanonicalRecord
	err := s.col.FindOne(ctx, filter, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.CanonicalRecord{}, false, nil
	}
	if err != nil {
		return model.CanonicalRecord{}, false, errs.NewStore("read failed", err)
	}
	return rec, true, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return errs.NewStore("disconnect failed", err)
	}
	return nil
}
