package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/NewsFlow/internal/domain"
)

// MemoryStore keeps cache entries in a process-local map. It is the default store and
// the one used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

var _ domain.CacheStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]domain.CacheEntry),
	}
}

func (s *MemoryStore) Load(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}

func (s *MemoryStore) Save(_ context.Context, entry domain.CacheEntry) error {
	entry.Payload = append([]byte(nil), entry.Payload...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
