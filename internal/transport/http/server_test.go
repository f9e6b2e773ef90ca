package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NewsFlow/internal/app"
	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/domain/mocks"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSources struct {
	page *domain.NewsPage
	err  error
	got  []any
}

func (s *stubSources) FetchSourceNews(_ context.Context, source string, page, limit int) (*domain.NewsPage, error) {
	s.got = []any{source, page, limit}
	return s.page, s.err
}

type stubPurger struct {
	keys []string
	err  error
}

func (p *stubPurger) Purge(_ context.Context, key string) error {
	p.keys = append(p.keys, key)
	return p.err
}

type fixture struct {
	news    *mocks.MockNewsReader
	sources *stubSources
	purger  *stubPurger
	contact *mocks.MockContactGateway
	router  http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		news:    new(mocks.MockNewsReader),
		sources: &stubSources{},
		purger:  &stubPurger{},
		contact: new(mocks.MockContactGateway),
	}
	f.router = NewRouter(NewHandler(f.news, f.sources, f.purger, f.contact))
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListNews(t *testing.T) {
	f := newFixture()
	f.news.On("FetchNews", mock.Anything, []string{"World", "Sports", "Tech"}, 2, 10).Return(&domain.NewsPage{
		Results: []domain.Article{{ID: "1", Title: "One"}},
		Total:   1,
		Page:    2,
		Limit:   10,
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/news?category=World,Sports&category=Tech&page=2&limit=10", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	body := decode(t, rec)
	assert.NotContains(t, body, "isMockData")
	assert.Equal(t, float64(1), body["total"])
	f.news.AssertExpectations(t)
}

func TestLatestNews_MarksMockData(t *testing.T) {
	f := newFixture()
	f.news.On("FetchLatestNews", mock.Anything, 0, 0).Return(&domain.NewsPage{
		Results:    []domain.Article{{ID: "mock-1"}},
		Total:      5,
		Page:       1,
		Limit:      50,
		Provenance: domain.ProvenanceMock,
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/news/latest", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isMockData"])
}

func TestListNews_InvalidPaging(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/api/news?page=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])

	rec = f.do(t, http.MethodGet, "/api/news?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.news.AssertNotCalled(t, "FetchNews", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNewsByID(t *testing.T) {
	f := newFixture()
	f.news.On("FetchNewsByID", mock.Anything, "abc").Return(&domain.ArticleResult{
		Article: domain.Article{ID: "abc", Title: "Live"},
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/news/abc", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "abc", body["_id"])
	assert.Equal(t, "Live", body["title"])
	assert.NotContains(t, body, "isMockData")
}

func TestNewsByID_NotFound(t *testing.T) {
	f := newFixture()
	notFound := &newsapi.APIError{Kind: newsapi.KindClientError, StatusCode: http.StatusNotFound, UserMessage: newsapi.MsgNotFound}
	f.news.On("FetchNewsByID", mock.Anything, "gone").Return(nil, notFound)

	rec := f.do(t, http.MethodGet, "/api/news/gone", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, newsapi.MsgNotFound, body["message"])
}

func TestNewsByID_UnexpectedError(t *testing.T) {
	f := newFixture()
	f.news.On("FetchNewsByID", mock.Anything, "x").Return(nil, errors.New("decode failure"))

	rec := f.do(t, http.MethodGet, "/api/news/x", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, newsapi.MsgUnexpected, decode(t, rec)["message"])
}

func TestNewsByID_ClientCanceled(t *testing.T) {
	f := newFixture()
	f.news.On("FetchNewsByID", mock.Anything, "x").Return(nil, context.Canceled)

	rec := f.do(t, http.MethodGet, "/api/news/x", "")

	assert.Empty(t, rec.Body.String())
	assert.NotEqual(t, http.StatusGatewayTimeout, rec.Code)
}

func TestNewsByID_DeadlineExceeded(t *testing.T) {
	f := newFixture()
	f.news.On("FetchNewsByID", mock.Anything, "x").Return(nil, context.DeadlineExceeded)

	rec := f.do(t, http.MethodGet, "/api/news/x", "")

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, newsapi.MsgConnectivity, decode(t, rec)["message"])
}

func TestSourceNews(t *testing.T) {
	f := newFixture()
	f.sources.page = &domain.NewsPage{Results: []domain.Article{{ID: "1", Source: "BBC News"}}, Total: 1, Page: 1, Limit: 1}

	rec := f.do(t, http.MethodGet, "/api/sources/BBC%20News/news?limit=1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"BBC News", 0, 1}, f.sources.got)
}

func TestSourceNews_MissingSource(t *testing.T) {
	f := newFixture()
	f.sources.err = app.ErrMissingSource

	rec := f.do(t, http.MethodGet, "/api/sources/%20/news", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContact(t *testing.T) {
	f := newFixture()
	sub := domain.ContactSubmission{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}
	f.contact.On("Forward", mock.Anything, sub).Return(domain.ContactReply{
		StatusCode: http.StatusCreated,
		Body:       map[string]any{"status": "success"},
	})

	rec := f.do(t, http.MethodPost, "/api/contact", `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "success", decode(t, rec)["status"])
}

func TestContact_InvalidBody(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/api/contact", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.contact.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything)
}

func TestPurgeCache(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodDelete, "/api/cache/news_all_1_50", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	f.purger.err = errors.New("broker down")
	rec = f.do(t, http.MethodDelete, "/api/cache", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"news_all_1_50", ""}, f.purger.keys)
}

func TestHealth(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
