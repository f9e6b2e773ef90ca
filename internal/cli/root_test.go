package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/domain/mocks"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/NewsFlow/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPurger struct {
	keys []string
}

func (p *recordingPurger) Purge(_ context.Context, key string) error {
	p.keys = append(p.keys, key)
	return nil
}

func run(t *testing.T, reader domain.NewsReader, purger Purger, args ...string) (string, error) {
	t.Helper()
	closed := false
	root := NewRootCmd(func(cfg *config.Config) (*Services, error) {
		return &Services{
			News:  reader,
			Cache: purger,
			Close: func() error { closed = true; return nil },
		}, nil
	})
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		assert.True(t, closed, "services are closed after the command")
	}
	return out.String(), err
}

func TestNewsCommand(t *testing.T) {
	reader := new(mocks.MockNewsReader)
	reader.On("FetchNews", mock.Anything, []string{"World", "Sports"}, 2, 5).Return(&domain.NewsPage{
		Results: []domain.Article{{ID: "1", Title: "Headline", Source: "BBC News"}},
		Total:   1,
		Page:    2,
		Limit:   5,
	}, nil)

	out, err := run(t, reader, nil, "news", "--category", "World,Sports", "--page", "2", "--limit", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "Page 2 (limit 5), 1 total")
	assert.Contains(t, out, "Headline | BBC News")
	assert.NotContains(t, out, "sample content")
}

func TestLatestCommand_DefaultsAndMockNotice(t *testing.T) {
	reader := new(mocks.MockNewsReader)
	reader.On("FetchLatestNews", mock.Anything, 1, 50).Return(&domain.NewsPage{
		Results:    []domain.Article{{ID: "mock-1", Title: "Sample"}},
		Total:      5,
		Page:       1,
		Limit:      50,
		Provenance: domain.ProvenanceMock,
	}, nil)

	out, err := run(t, reader, nil, "latest")

	require.NoError(t, err)
	assert.Contains(t, out, "Showing sample content")
}

func TestSourceCommand_JSON(t *testing.T) {
	reader := new(mocks.MockNewsReader)
	reader.On("FetchNewsBySource", mock.Anything, "BBC News", 1, 20).Return(&domain.NewsPage{
		Results:    []domain.Article{{ID: "mock-bbc-news-0", Source: "BBC News"}},
		Total:      1,
		Page:       1,
		Limit:      20,
		Provenance: domain.ProvenanceMock,
	}, nil)

	out, err := run(t, reader, nil, "source", "BBC News", "--json")

	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, true, payload["isMockData"])
	assert.Equal(t, float64(20), payload["limit"])
}

func TestArticleCommand(t *testing.T) {
	reader := new(mocks.MockNewsReader)
	reader.On("FetchNewsByID", mock.Anything, "abc").Return(&domain.ArticleResult{
		Article: domain.Article{ID: "abc", Title: "Live story", Content: "Body", URL: "https://example.com/abc"},
	}, nil)

	out, err := run(t, reader, nil, "article", "abc")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Live story\n"))
	assert.Contains(t, out, "https://example.com/abc")
}

func TestArticleCommand_NotFound(t *testing.T) {
	reader := new(mocks.MockNewsReader)
	notFound := &newsapi.APIError{Kind: newsapi.KindClientError, StatusCode: http.StatusNotFound, UserMessage: newsapi.MsgNotFound}
	reader.On("FetchNewsByID", mock.Anything, "gone").Return(nil, notFound)

	_, err := run(t, reader, nil, "article", "gone")

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), newsapi.MsgNotFound))
	assert.True(t, errors.As(err, new(*newsapi.APIError)))
}

func TestCacheClearCommand(t *testing.T) {
	purger := &recordingPurger{}

	out, err := run(t, nil, purger, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cache cleared\n", out)

	out, err = run(t, nil, purger, "cache", "clear", "news_all_1_50")
	require.NoError(t, err)
	assert.Equal(t, "Cleared news_all_1_50\n", out)

	assert.Equal(t, []string{"", "news_all_1_50"}, purger.keys)
}

func TestBuildServices_AgainstLiveBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"_id":"1","title":"From server","source":"Wire"}],"total":1,"page":1,"limit":50}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		BaseURL:        server.URL,
		HTTPTimeout:    time.Second,
		CacheTTL:       time.Minute,
		CacheNamespace: "newsflow_cache_",
		CacheBackend:   config.CacheBackendMemory,
	}
	svc, err := BuildServices(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	page, err := svc.News.FetchLatestNews(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.False(t, page.IsMock())
	assert.Equal(t, "From server", page.Results[0].Title)
	assert.NoError(t, svc.Cache.Purge(context.Background(), ""))
}

func TestBuildServices_SQLiteBackendCaches(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"results":[{"_id":"1","title":"Stored","source":"Wire"}],"total":1,"page":1,"limit":5}`))
	}))
	defer server.Close()

	cfg := &config.Config{
		BaseURL:        server.URL,
		HTTPTimeout:    time.Second,
		CacheTTL:       time.Minute,
		CacheNamespace: "newsflow_cache_",
		CacheBackend:   config.CacheBackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "cache.db"),
	}
	svc, err := BuildServices(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	for i := 0; i < 2; i++ {
		page, err := svc.News.FetchLatestNews(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, "Stored", page.Results[0].Title)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestBuildServices_UnknownBackend(t *testing.T) {
	_, err := BuildServices(&config.Config{CacheBackend: "redis"})
	assert.Error(t, err)
}
