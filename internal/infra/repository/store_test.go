package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every CacheStore adapter must share.
func exerciseStore(t *testing.T, store domain.CacheStore) {
	t.Helper()
	ctx := context.Background()
	storedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Load missing key", func(t *testing.T) {
		_, ok, err := store.Load(ctx, "newsflow_cache_missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Save and Load", func(t *testing.T) {
		entry := domain.CacheEntry{
			Key:      "newsflow_cache_news_all_1_50",
			Payload:  []byte(`{"results":[],"total":0,"page":1,"limit":50}`),
			StoredAt: storedAt,
		}
		require.NoError(t, store.Save(ctx, entry))

		got, ok, err := store.Load(ctx, entry.Key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, entry.Payload, got.Payload)
		assert.WithinDuration(t, storedAt, got.StoredAt, time.Millisecond)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		key := "newsflow_cache_article_a1"
		require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: key, Payload: []byte(`1`), StoredAt: storedAt}))
		later := storedAt.Add(time.Minute)
		require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: key, Payload: []byte(`2`), StoredAt: later}))

		got, ok, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte(`2`), got.Payload)
		assert.WithinDuration(t, later, got.StoredAt, time.Millisecond)
	})

	t.Run("Delete", func(t *testing.T) {
		key := "newsflow_cache_delete_me"
		require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: key, Payload: []byte(`x`), StoredAt: storedAt}))
		require.NoError(t, store.Delete(ctx, key))

		_, ok, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		// Deleting a missing key is not an error
		assert.NoError(t, store.Delete(ctx, key))
	})

	t.Run("DeletePrefix keeps foreign keys", func(t *testing.T) {
		owned := []string{"ns_%_a", "ns_%_b"}
		foreign := []string{"other_a", "nsx_%_c"}
		for _, k := range append(owned, foreign...) {
			require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: k, Payload: []byte(`x`), StoredAt: storedAt}))
		}

		require.NoError(t, store.DeletePrefix(ctx, "ns_%_"))

		for _, k := range owned {
			_, ok, err := store.Load(ctx, k)
			require.NoError(t, err)
			assert.False(t, ok, "owned key %s should be gone", k)
		}
		for _, k := range foreign {
			_, ok, err := store.Load(ctx, k)
			require.NoError(t, err)
			assert.True(t, ok, "foreign key %s should survive", k)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := repository.NewMemoryStore()
	exerciseStore(t, store)
}

func TestMemoryStore_PayloadIsCopied(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	payload := []byte(`abc`)
	require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: "k", Payload: payload, StoredAt: time.Now()}))

	payload[0] = 'z'
	got, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`abc`), got.Payload)
	assert.Equal(t, 1, store.Len())
}

func TestSQLiteStore(t *testing.T) {
	store, err := repository.OpenSQLiteStore(filepath.Join(t.TempDir(), "cache", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := repository.OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, domain.CacheEntry{Key: "k", Payload: []byte(`{}`), StoredAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := repository.OpenSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	_, ok, err := reopened.Load(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
