// Package factory provides dependency injection constructors for infrastructure components.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/queue"
	"github.com/NewsFlow/internal/infra/repository"
	"github.com/NewsFlow/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// NewMongoClient connects to MongoDB when it backs the cache and returns nil otherwise.
func NewMongoClient(lc fx.Lifecycle, cfg *config.Config) (*mongo.Client, error) {
	if cfg.CacheBackend != config.CacheBackendMongo {
		return nil, nil
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("mongo URI not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}

// NewCacheStore selects the persisted cache backend.
func NewCacheStore(lc fx.Lifecycle, cfg *config.Config, client *mongo.Client) (domain.CacheStore, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		return repository.NewMemoryStore(), nil

	case config.CacheBackendSQLite:
		store, err := repository.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return store.Close()
			},
		})
		return store, nil

	case config.CacheBackendMongo:
		if client == nil {
			return nil, errors.New("mongo client is nil")
		}
		if cfg.MongoDBName == "" || cfg.MongoColl == "" {
			return nil, errors.New("mongo database or collection not configured")
		}
		return repository.NewMongoStore(client, cfg.MongoDBName, cfg.MongoColl)

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// NewPurgePublisher returns nil when Kafka is not configured.
func NewPurgePublisher(cfg *config.Config, lc fx.Lifecycle) domain.PurgePublisher {
	if !cfg.KafkaEnabled() {
		slog.Info("Kafka not configured, cache purges stay local")
		return nil
	}

	publisher := queue.NewKafkaPurgePublisher(cfg.KafkaBrokers, cfg.KafkaPurgeTopic)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}

// NewPurgeConsumer returns nil when Kafka is not configured. groupID must be unique per
// instance.
func NewPurgeConsumer(cfg *config.Config, groupID string, lc fx.Lifecycle) *queue.KafkaPurgeConsumer {
	if !cfg.KafkaEnabled() {
		return nil
	}

	consumer := queue.NewKafkaPurgeConsumer(cfg.KafkaBrokers, cfg.KafkaPurgeTopic, groupID)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return consumer.Close()
		},
	})
	return consumer
}
