package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/metrics"
	"github.com/NewsFlow/pkg/logging"
)

const (
	DefaultCacheTTL       = 5 * time.Minute
	DefaultCacheNamespace = "newsflow_cache_"
)

// ResponseCache is a time-boxed cache of backend payloads on top of a CacheStore.
// Caching is an optimization only: store failures are logged and swallowed, reads that
// fail count as misses, and no method returns an error.
type ResponseCache struct {
	store     domain.CacheStore
	ttl       time.Duration
	namespace string
	now       func() time.Time
	sampler   *logging.Sampler
}

type CacheOption func(*ResponseCache)

// WithCacheClock overrides time.Now, for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *ResponseCache) {
		c.now = now
	}
}

func NewResponseCache(store domain.CacheStore, ttl time.Duration, namespace string, opts ...CacheOption) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}
	c := &ResponseCache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
		sampler:   logging.NewSampler(10, nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload for key if it is younger than the TTL.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.load(ctx, key)
	if !ok {
		metrics.CacheLookups.WithLabelValues("persisted", "miss").Inc()
		return nil, false
	}
	if entry.Age(c.now()) >= c.ttl {
		metrics.CacheLookups.WithLabelValues("persisted", "expired").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("persisted", "hit").Inc()
	return entry.Payload, true
}

// GetStale returns the payload for key regardless of its age.
func (c *ResponseCache) GetStale(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := c.load(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Payload, true
}

func (c *ResponseCache) Set(ctx context.Context, key string, payload []byte) {
	entry := domain.CacheEntry{
		Key:      c.namespace + key,
		Payload:  payload,
		StoredAt: c.now(),
	}
	if err := c.store.Save(ctx, entry); err != nil {
		metrics.CacheErrors.WithLabelValues("write").Inc()
		c.sampler.Warn("cache_write", "Cache write error", "key", key, "error", err)
	}
}

func (c *ResponseCache) Clear(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, c.namespace+key); err != nil {
		metrics.CacheErrors.WithLabelValues("clear").Inc()
		c.sampler.Warn("cache_clear", "Cache clear error", "key", key, "error", err)
	}
}

// ClearAll removes every entry in this cache's namespace and nothing else.
func (c *ResponseCache) ClearAll(ctx context.Context) {
	if err := c.store.DeletePrefix(ctx, c.namespace); err != nil {
		metrics.CacheErrors.WithLabelValues("clear_all").Inc()
		c.sampler.Warn("cache_clear_all", "Cache clearAll error", "namespace", c.namespace, "error", err)
		return
	}
	slog.Debug("Cache cleared", "namespace", c.namespace)
}

func (c *ResponseCache) load(ctx context.Context, key string) (domain.CacheEntry, bool) {
	entry, ok, err := c.store.Load(ctx, c.namespace+key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("read").Inc()
		c.sampler.Warn("cache_read", "Cache read error", "key", key, "error", err)
		return domain.CacheEntry{}, false
	}
	return entry, ok
}
