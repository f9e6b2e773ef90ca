package factory

import (
	"errors"

	"github.com/NewsFlow/internal/app"
	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/gateway"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/NewsFlow/internal/infra/queue"
	transport "github.com/NewsFlow/internal/transport/http"
	"github.com/NewsFlow/pkg/config"
	"go.uber.org/fx"
)

// NewNewsAPIClient creates the backend client for the resolved base URL.
func NewNewsAPIClient(cfg *config.Config) (*newsapi.Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("news API base URL not resolved")
	}
	return newsapi.NewClient(cfg.BaseURL, cfg.HTTPTimeout, cfg.BreakerThreshold), nil
}

func NewResponseCache(store domain.CacheStore, cfg *config.Config) *app.ResponseCache {
	return app.NewResponseCache(store, cfg.CacheTTL, cfg.CacheNamespace)
}

// NewNewsService creates the fetch orchestrator.
func NewNewsService(client *newsapi.Client, cache *app.ResponseCache, cfg *config.Config) (*app.NewsService, error) {
	if cfg.RetryAttempts < 0 {
		return nil, errors.New("retry attempts must not be negative")
	}
	return app.NewNewsService(client, cache, app.RetryPolicy{
		Retries: cfg.RetryAttempts,
		Backoff: cfg.RetryBackoff,
	}), nil
}

func NewSourceService(news *app.NewsService, cfg *config.Config) *app.SourceService {
	return app.NewSourceService(news, cfg.CacheTTL)
}

func NewCacheAdmin(cache *app.ResponseCache, sources *app.SourceService, publisher domain.PurgePublisher) *app.CacheAdmin {
	return app.NewCacheAdmin(cache, sources, publisher)
}

// NewContactGateway posts to the backend's /api mount, whatever form the base URL took.
func NewContactGateway(cfg *config.Config) domain.ContactGateway {
	client := newsapi.NewClient(gateway.ContactBaseURL(cfg.BaseURL), cfg.HTTPTimeout, 0)
	return gateway.NewContactForwarder(client)
}

func NewHandler(
	news *app.NewsService,
	sources *app.SourceService,
	admin *app.CacheAdmin,
	contact domain.ContactGateway,
) *transport.Handler {
	return transport.NewHandler(news, sources, admin, contact)
}

// NewInstancePurgeConsumer gives each instance its own consumer group so every
// instance receives every purge.
func NewInstancePurgeConsumer(cfg *config.Config, admin *app.CacheAdmin, lc fx.Lifecycle) *queue.KafkaPurgeConsumer {
	return NewPurgeConsumer(cfg, "newsflow-purge-"+admin.Origin(), lc)
}
