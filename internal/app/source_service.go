package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/metrics"
	"github.com/NewsFlow/internal/infra/newsapi"
	"golang.org/x/sync/singleflight"
)

const DefaultHeadlineLimit = 1

type sourceEntry struct {
	page     *domain.NewsPage
	storedAt time.Time
}

// SourceService keeps per-source headline pages in memory on top of a NewsReader and
// tracks loading and error state per source name.
type SourceService struct {
	reader  domain.NewsReader
	ttl     time.Duration
	now     func() time.Time
	pending singleflight.Group

	mu      sync.RWMutex
	entries map[string]sourceEntry
	loading map[string]int
	errs    map[string]string
}

type SourceOption func(*SourceService)

func WithSourceClock(now func() time.Time) SourceOption {
	return func(s *SourceService) {
		s.now = now
	}
}

func NewSourceService(reader domain.NewsReader, ttl time.Duration, opts ...SourceOption) *SourceService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	s := &SourceService{
		reader:  reader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]sourceEntry),
		loading: make(map[string]int),
		errs:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchSourceNews returns a page of articles from source. When the fetch fails or
// degrades to sample content, an older live page is served if one is held.
func (s *SourceService) FetchSourceNews(ctx context.Context, source string, page, limit int) (*domain.NewsPage, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrMissingSource
	}
	page, limit = normalizePaging(page, limit, DefaultHeadlineLimit)
	key := SourceKey(source, page, limit)

	if entry, ok := s.lookup(key); ok && s.now().Sub(entry.storedAt) < s.ttl {
		metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
		return clonePage(entry.page), nil
	}
	metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()

	s.markLoading(source, 1)
	defer s.markLoading(source, -1)

	ch := s.pending.DoChan(key, func() (interface{}, error) {
		return s.reader.FetchNewsBySource(context.WithoutCancel(ctx), source, page, limit)
	})

	var (
		result *domain.NewsPage
		err    error
	)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.DedupedRequests.WithLabelValues("source").Inc()
		}
		if res.Err != nil {
			err = res.Err
		} else {
			result = res.Val.(*domain.NewsPage)
		}
	}

	if err == nil && !result.IsMock() {
		s.mu.Lock()
		s.entries[key] = sourceEntry{page: clonePage(result), storedAt: s.now()}
		delete(s.errs, source)
		s.mu.Unlock()
		return clonePage(result), nil
	}

	if err != nil {
		slog.Error("Error fetching news for source", "source", source, "error", err)
		s.recordError(source, err)
	}

	if entry, ok := s.lookup(key); ok {
		metrics.StaleServed.Inc()
		slog.Info("Serving stale source news", "source", source, "age", s.now().Sub(entry.storedAt))
		return clonePage(entry.page), nil
	}
	if err != nil {
		return nil, err
	}
	return clonePage(result), nil
}

// IsLoading reports whether a fetch for source is in progress.
func (s *SourceService) IsLoading(source string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[strings.TrimSpace(source)] > 0
}

// LastError returns the friendly message of the last failed fetch for source, or "".
func (s *SourceService) LastError(source string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[strings.TrimSpace(source)]
}

// Clear drops every in-memory page. Loading and error state are kept.
func (s *SourceService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]sourceEntry)
}

// Forget drops the in-memory page stored under key, if any.
func (s *SourceService) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *SourceService) lookup(key string) (sourceEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	return entry, ok
}

func (s *SourceService) markLoading(source string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading[source] += delta
	if s.loading[source] <= 0 {
		delete(s.loading, source)
	}
}

func (s *SourceService) recordError(source string, err error) {
	msg := fmt.Sprintf("Failed to load news from %s", source)
	if apiMsg := newsapi.UserMessage(err); apiMsg != newsapi.MsgUnexpected {
		msg = apiMsg
	}
	s.mu.Lock()
	s.errs[source] = msg
	s.mu.Unlock()
}

func clonePage(p *domain.NewsPage) *domain.NewsPage {
	if p == nil {
		return nil
	}
	out := *p
	out.Results = make([]domain.Article, len(p.Results))
	copy(out.Results, p.Results)
	return &out
}
