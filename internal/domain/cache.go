package domain

import (
	"context"
	"time"
)

// CacheEntry is one persisted response payload.
type CacheEntry struct {
	Key      string    `json:"key" bson:"_id"`
	Payload  []byte    `json:"payload" bson:"payload"`
	StoredAt time.Time `json:"storedAt" bson:"stored_at"`
}

// Age returns how long ago the entry was written, relative to now.
func (e CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// CacheStore is the persistence port behind the response cache. Keys arrive fully
// namespaced; DeletePrefix must only touch keys starting with prefix.
type CacheStore interface {
	Load(ctx context.Context, key string) (CacheEntry, bool, error)
	Save(ctx context.Context, entry CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// PurgeEvent announces a cache clear to other instances. An empty Key means everything.
type PurgeEvent struct {
	Key    string    `json:"key"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// PurgePublisher broadcasts purge events.
type PurgePublisher interface {
	PublishPurge(ctx context.Context, event PurgeEvent) error
	Close() error
}
