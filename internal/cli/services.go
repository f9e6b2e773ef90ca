package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NewsFlow/internal/app"
	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/NewsFlow/internal/infra/queue"
	"github.com/NewsFlow/internal/infra/repository"
	"github.com/NewsFlow/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BuildServices wires the same stack the server uses, minus the HTTP surface.
func BuildServices(cfg *config.Config) (*Services, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	store, storeClose, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if storeClose != nil {
		closers = append(closers, storeClose)
	}

	var publisher domain.PurgePublisher
	if cfg.KafkaEnabled() {
		p := queue.NewKafkaPurgePublisher(cfg.KafkaBrokers, cfg.KafkaPurgeTopic)
		publisher = p
		closers = append(closers, p.Close)
	}

	cache := app.NewResponseCache(store, cfg.CacheTTL, cfg.CacheNamespace)
	client := newsapi.NewClient(cfg.BaseURL, cfg.HTTPTimeout, cfg.BreakerThreshold)
	news := app.NewNewsService(client, cache, app.RetryPolicy{
		Retries: cfg.RetryAttempts,
		Backoff: cfg.RetryBackoff,
	})

	return &Services{
		News:  news,
		Cache: app.NewCacheAdmin(cache, nil, publisher),
		Close: closeAll,
	}, nil
}

func openStore(cfg *config.Config) (domain.CacheStore, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		return repository.NewMemoryStore(), nil, nil

	case config.CacheBackendSQLite:
		store, err := repository.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.CacheBackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to mongo: %w", err)
		}
		disconnect := func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		}
		store, err := repository.NewMongoStore(client, cfg.MongoDBName, cfg.MongoColl)
		if err != nil {
			_ = disconnect()
			return nil, nil, err
		}
		return store, disconnect, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
