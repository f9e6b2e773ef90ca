package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/NewsFlow/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists cache entries in a local SQLite file, the server-side
// counterpart of browser local storage.
type SQLiteStore struct {
	db *sql.DB
}

var _ domain.CacheStore = (*SQLiteStore)(nil)

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key       TEXT PRIMARY KEY,
			payload   BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	var (
		payload  []byte
		storedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, stored_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("loading cache entry %s: %w", key, err)
	}
	return domain.CacheEntry{
		Key:      key,
		Payload:  payload,
		StoredAt: time.UnixMilli(storedAt),
	}, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, entry domain.CacheEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`, entry.Key, entry.Payload, entry.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving cache entry %s: %w", entry.Key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE substr(key, 1, ?) = ?`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return fmt.Errorf("deleting cache prefix %s: %w", prefix, err)
	}
	return nil
}
