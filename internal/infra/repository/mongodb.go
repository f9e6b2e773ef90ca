package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/NewsFlow/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore shares the response cache between server instances.
type MongoStore struct {
	collection *mongo.Collection
}

var _ domain.CacheStore = (*MongoStore)(nil)

func NewMongoStore(client *mongo.Client, dbName, collectionName string) (*MongoStore, error) {
	store := &MongoStore{
		collection: client.Database(dbName).Collection(collectionName),
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "stored_at", Value: -1}},
			Options: options.Index().SetName("stored_at_idx"),
		},
	}

	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)
	_, err := s.collection.Indexes().CreateMany(ctx, models, opts)
	return err
}

func (s *MongoStore) Load(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	var entry domain.CacheEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("failed to load cache entry: %w", err)
	}
	return entry, true, nil
}

func (s *MongoStore) Save(ctx context.Context, entry domain.CacheEntry) error {
	filter := bson.M{"_id": entry.Key}
	update := bson.M{"$set": bson.M{
		"payload":   entry.Payload,
		"stored_at": entry.StoredAt,
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *MongoStore) DeletePrefix(ctx context.Context, prefix string) error {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	if _, err := s.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete cache prefix: %w", err)
	}
	return nil
}
