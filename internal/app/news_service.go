package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/metrics"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/NewsFlow/internal/mockdata"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultListLimit   = 50
	DefaultSourceLimit = 20
	// MaxLimit caps the page size a caller can ask for
	MaxLimit = 100

	opNews     = "news"
	opLatest   = "latest"
	opArticle  = "article"
	opBySource = "source"
)

var (
	ErrMissingID     = errors.New("article id is required")
	ErrMissingSource = errors.New("source name is required")
)

// RetryPolicy is a flat retry budget: Retries extra attempts, Backoff apart.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Retries: 2, Backoff: time.Second}
}

// NewsService resolves news listings and articles: cache first, then the backend with
// a bounded flat retry, then generated sample content.
type NewsService struct {
	api     domain.NewsAPI
	cache   *ResponseCache
	retry   RetryPolicy
	now     func() time.Time
	pending singleflight.Group
}

var _ domain.NewsReader = (*NewsService)(nil)

type ServiceOption func(*NewsService)

// WithServiceClock overrides time.Now for generated content.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *NewsService) {
		s.now = now
	}
}

func NewNewsService(api domain.NewsAPI, cache *ResponseCache, retry RetryPolicy, opts ...ServiceOption) *NewsService {
	if retry.Retries < 0 {
		retry.Retries = 0
	}
	s := &NewsService{
		api:   api,
		cache: cache,
		retry: retry,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchNews lists news, optionally restricted to categories. It only fails when ctx ends;
// backend failures degrade to a mock page.
func (s *NewsService) FetchNews(ctx context.Context, categories []string, page, limit int) (*domain.NewsPage, error) {
	page, limit = normalizePaging(page, limit, DefaultListLimit)
	cats := normalizeCategories(categories)
	key := NewsKey(cats, page, limit)

	ctx, span := startSpan(ctx, "FetchNews", attribute.String("cache_key", key))
	defer span.End()
	defer observe(opNews, time.Now())

	if cached, ok := s.cachedPage(ctx, key); ok {
		slog.Debug("Using cached news", "key", key)
		return cached, nil
	}

	query := pagingQuery(page, limit)
	if len(cats) > 0 {
		query.Set("category", strings.Join(cats, ","))
	}

	result, err := s.fetchPage(ctx, opNews, key, "news", query, limit)
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	span.RecordError(err)
	slog.Warn("News request failed after retries, using mock data", "key", key, "error", err)
	metrics.MockFallbacks.WithLabelValues(opNews).Inc()
	return s.mockNewsPage(cats, page, limit), nil
}

// FetchLatestNews lists the newest articles across all categories.
func (s *NewsService) FetchLatestNews(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
	page, limit = normalizePaging(page, limit, DefaultListLimit)
	key := LatestKey(page, limit)

	ctx, span := startSpan(ctx, "FetchLatestNews", attribute.String("cache_key", key))
	defer span.End()
	defer observe(opLatest, time.Now())

	if cached, ok := s.cachedPage(ctx, key); ok {
		slog.Debug("Using cached latest news", "key", key)
		return cached, nil
	}

	result, err := s.fetchPage(ctx, opLatest, key, "news/latest", pagingQuery(page, limit), limit)
	if err == nil {
		return result, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	span.RecordError(err)
	slog.Warn("Latest news request failed after retries, using mock data", "key", key, "error", err)
	metrics.MockFallbacks.WithLabelValues(opLatest).Inc()
	return mockPage(mockdata.SampleArticles(s.now()), page, limit), nil
}

// FetchNewsByID returns one article. A 4xx from the backend is returned as an error
// carrying a friendly message; other failures fall back to sample content.
func (s *NewsService) FetchNewsByID(ctx context.Context, id string) (*domain.ArticleResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	key := ArticleKey(id)

	ctx, span := startSpan(ctx, "FetchNewsByID", attribute.String("cache_key", key))
	defer span.End()
	defer observe(opArticle, time.Now())

	if payload, ok := s.cache.Get(ctx, key); ok {
		var article domain.Article
		if err := json.Unmarshal(payload, &article); err == nil {
			slog.Debug("Using cached article", "id", id)
			return &domain.ArticleResult{Article: article, Provenance: domain.ProvenanceLive}, nil
		}
	}

	body, err := s.fetchShared(ctx, opArticle, key, "news/"+url.PathEscape(id), nil, func(b []byte) error {
		var decoded domain.Article
		return json.Unmarshal(b, &decoded)
	})
	if err == nil {
		var article domain.Article
		if err := json.Unmarshal(body, &article); err != nil {
			return nil, fmt.Errorf("decode article %s: %w", id, err)
		}
		if article.ID == "" {
			article.ID = id
		}
		s.store(ctx, key, article)
		return &domain.ArticleResult{Article: article, Provenance: domain.ProvenanceLive}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	span.RecordError(err)
	var apiErr *newsapi.APIError
	if errors.As(err, &apiErr) && apiErr.IsClientError() {
		return nil, fmt.Errorf("fetch article %s: %w", id, err)
	}

	slog.Warn("News by ID request failed, using mock data", "id", id, "error", err)
	metrics.MockFallbacks.WithLabelValues(opArticle).Inc()
	article, ok := mockdata.FindSample(id, s.now())
	if !ok {
		article = mockdata.Placeholder(id, s.now())
	}
	return &domain.ArticleResult{Article: article, Provenance: domain.ProvenanceMock}, nil
}

// FetchNewsBySource returns articles whose source matches source case-insensitively.
// The backend has no per-source endpoint, so a general batch of 2*limit is filtered.
func (s *NewsService) FetchNewsBySource(ctx context.Context, source string, page, limit int) (*domain.NewsPage, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrMissingSource
	}
	page, limit = normalizePaging(page, limit, DefaultSourceLimit)
	key := SourceKey(source, page, limit)

	ctx, span := startSpan(ctx, "FetchNewsBySource", attribute.String("cache_key", key))
	defer span.End()
	defer observe(opBySource, time.Now())

	if cached, ok := s.cachedPage(ctx, key); ok {
		slog.Debug("Using cached news for source", "source", source)
		return cached, nil
	}

	batch, err := s.FetchNews(ctx, nil, page, limit*2)
	if err != nil {
		return nil, err
	}

	candidates := batch.Results
	if batch.IsMock() {
		metrics.MockFallbacks.WithLabelValues(opBySource).Inc()
		candidates = mockdata.GenerateSourceArticles(source, limit, s.now())
	}

	var matched []domain.Article
	for _, a := range candidates {
		if strings.EqualFold(a.Source, source) {
			matched = append(matched, a)
		}
	}

	result := &domain.NewsPage{
		Results:    truncate(matched, limit),
		Total:      len(matched),
		Page:       page,
		Limit:      limit,
		Provenance: batch.Provenance,
	}
	if !result.IsMock() {
		s.store(ctx, key, result)
	}
	return result, nil
}

func (s *NewsService) fetchPage(ctx context.Context, op, key, path string, query url.Values, limit int) (*domain.NewsPage, error) {
	body, err := s.fetchShared(ctx, op, key, path, query, func(b []byte) error {
		var decoded domain.NewsPage
		return json.Unmarshal(b, &decoded)
	})
	if err != nil {
		return nil, err
	}

	var result domain.NewsPage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", op, err)
	}
	result.Results = truncate(result.Results, limit)
	result.Provenance = domain.ProvenanceLive
	s.store(ctx, key, &result)
	return &result, nil
}

// fetchShared collapses concurrent requests for the same key into one retried backend
// call. The shared call runs detached from any single caller's cancellation.
func (s *NewsService) fetchShared(ctx context.Context, op, key, path string, query url.Values, check func([]byte) error) ([]byte, error) {
	ch := s.pending.DoChan(key, func() (interface{}, error) {
		return s.getWithRetry(context.WithoutCancel(ctx), op, path, query, check)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.DedupedRequests.WithLabelValues("orchestrator").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// getWithRetry makes up to Retries+1 attempts, Backoff apart. A 2xx body that check
// rejects counts as a failed attempt.
func (s *NewsService) getWithRetry(ctx context.Context, op, path string, query url.Values, check func([]byte) error) ([]byte, error) {
	attempts := s.retry.Retries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := s.api.GetJSON(ctx, path, query)
		if err == nil {
			if checkErr := check(body); checkErr != nil {
				err = &newsapi.APIError{
					Kind:        newsapi.KindServerError,
					UserMessage: newsapi.MsgServerError,
					Err:         fmt.Errorf("malformed response: %w", checkErr),
				}
			}
		}
		if err == nil {
			metrics.FetchAttempts.WithLabelValues(op, "success").Inc()
			return body, nil
		}

		lastErr = err
		metrics.FetchAttempts.WithLabelValues(op, "failure").Inc()

		if attempt == attempts {
			break
		}
		slog.Info("Retrying request", "operation", op, "path", path, "attempt", attempt, "retries_left", attempts-attempt, "error", err)
		if err := sleepCtx(ctx, s.retry.Backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s: exhausted %d attempts: %w", op, attempts, lastErr)
}

func (s *NewsService) cachedPage(ctx context.Context, key string) (*domain.NewsPage, bool) {
	payload, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var result domain.NewsPage
	if err := json.Unmarshal(payload, &result); err != nil {
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}
	result.Provenance = domain.ProvenanceLive
	return &result, true
}

func (s *NewsService) store(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode cache payload", "key", key, "error", err)
		return
	}
	s.cache.Set(ctx, key, payload)
}

func (s *NewsService) mockNewsPage(cats []string, page, limit int) *domain.NewsPage {
	now := s.now()
	if len(cats) == 0 {
		return mockPage(mockdata.SampleArticles(now), page, limit)
	}
	per := (limit + len(cats) - 1) / len(cats)
	var all []domain.Article
	for _, cat := range cats {
		all = append(all, mockdata.GenerateArticles(cat, per, now)...)
	}
	return mockPage(all, page, limit)
}

func mockPage(all []domain.Article, page, limit int) *domain.NewsPage {
	return &domain.NewsPage{
		Results:    truncate(all, limit),
		Total:      len(all),
		Page:       page,
		Limit:      limit,
		Provenance: domain.ProvenanceMock,
	}
}

// NewsKey, LatestKey, ArticleKey and SourceKey build the cache keys (without namespace).
func NewsKey(categories []string, page, limit int) string {
	cat := "all"
	if len(categories) > 0 {
		cat = strings.Join(categories, ",")
	}
	return fmt.Sprintf("news_%s_%d_%d", cat, page, limit)
}

func LatestKey(page, limit int) string {
	return fmt.Sprintf("latest_news_%d_%d", page, limit)
}

func ArticleKey(id string) string {
	return "article_" + id
}

func SourceKey(source string, page, limit int) string {
	return fmt.Sprintf("source_%s_%d_%d", strings.ToLower(strings.TrimSpace(source)), page, limit)
}

func normalizePaging(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// normalizeCategories trims, drops blanks and duplicates, and sorts so that
// {"World","Sports"} and {"Sports","World"} share a cache key.
func normalizeCategories(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func pagingQuery(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func truncate(articles []domain.Article, limit int) []domain.Article {
	if articles == nil {
		return []domain.Article{}
	}
	if len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("newsflow").Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

func observe(op string, start time.Time) {
	metrics.FetchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
