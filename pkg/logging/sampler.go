package logging

import (
	"log/slog"
	"sync"
)

// Sampler thins out repeated log lines for the same failure.
// The first occurrence of a key is let through, then every Nth.
type Sampler struct {
	mu     sync.Mutex
	seen   map[string]int
	every  int
	logger *slog.Logger
}

// NewSampler creates a sampler that logs every Nth occurrence (every < 1 means 10).
// A nil logger uses slog.Default at call time.
func NewSampler(every int, logger *slog.Logger) *Sampler {
	if every < 1 {
		every = 10
	}
	return &Sampler{
		seen:   make(map[string]int),
		every:  every,
		logger: logger,
	}
}

// Allow records one occurrence of key and reports whether it should be logged.
func (s *Sampler) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[key]++
	n := s.seen[key]
	return n == 1 || n%s.every == 0
}

// Warn logs msg at warn level when key is allowed, adding the occurrence count.
func (s *Sampler) Warn(key, msg string, args ...any) {
	if !s.Allow(key) {
		return
	}
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(msg, append(args, "occurrences", s.Count(key))...)
}

func (s *Sampler) Count(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key]
}

// Forget drops the counter for key, e.g. once the failure has recovered.
func (s *Sampler) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
}
