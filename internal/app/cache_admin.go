package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/metrics"
	"github.com/google/uuid"
)

// CacheAdmin clears cached responses locally and tells other instances to do the same.
type CacheAdmin struct {
	cache     *ResponseCache
	sources   *SourceService
	publisher domain.PurgePublisher
	origin    string
	once      sync.Once
}

// NewCacheAdmin wires the admin. sources and publisher may be nil.
func NewCacheAdmin(cache *ResponseCache, sources *SourceService, publisher domain.PurgePublisher) *CacheAdmin {
	return &CacheAdmin{
		cache:     cache,
		sources:   sources,
		publisher: publisher,
		origin:    uuid.NewString(),
	}
}

// Origin identifies this instance in purge events.
func (a *CacheAdmin) Origin() string {
	return a.origin
}

// Purge clears key, or everything when key is empty, and broadcasts the purge.
// A failed broadcast is returned, the local purge has already happened.
func (a *CacheAdmin) Purge(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		a.cache.ClearAll(ctx)
	} else {
		a.cache.Clear(ctx, key)
	}
	a.purgeMemory(key)
	metrics.CachePurges.WithLabelValues("local").Inc()
	slog.Info("Cache purged", "key", key)

	if a.publisher == nil {
		return nil
	}
	return a.publisher.PublishPurge(ctx, domain.PurgeEvent{
		Key:    key,
		Origin: a.origin,
		At:     time.Now().UTC(),
	})
}

// PurgeOnce clears the whole cache the first time it is called in this process.
func (a *CacheAdmin) PurgeOnce(ctx context.Context) {
	a.once.Do(func() {
		a.cache.ClearAll(ctx)
		a.purgeMemory("")
		metrics.CachePurges.WithLabelValues("startup").Inc()
		slog.Info("Cache cleared for new session")
	})
}

// ApplyRemote handles a purge announced by another instance. The persisted store is
// shared, so only in-memory layers are touched.
func (a *CacheAdmin) ApplyRemote(_ context.Context, event domain.PurgeEvent) {
	if event.Origin == a.origin {
		return
	}
	a.purgeMemory(event.Key)
	metrics.CachePurges.WithLabelValues("remote").Inc()
	slog.Info("Applied remote cache purge", "key", event.Key, "origin", event.Origin)
}

func (a *CacheAdmin) purgeMemory(key string) {
	if a.sources == nil {
		return
	}
	if key == "" {
		a.sources.Clear()
		return
	}
	a.sources.Forget(key)
}
