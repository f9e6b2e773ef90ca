package mocks

import (
	"context"
	"net/url"

	"github.com/NewsFlow/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockNewsAPI struct {
	mock.Mock
}

var _ domain.NewsAPI = (*MockNewsAPI)(nil)

func (m *MockNewsAPI) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	args := m.Called(ctx, path, query)

	// Handle nil body
	var body []byte
	if args.Get(0) != nil {
		body = args.Get(0).([]byte)
	}
	return body, args.Error(1)
}

type MockNewsReader struct {
	mock.Mock
}

var _ domain.NewsReader = (*MockNewsReader)(nil)

func (m *MockNewsReader) FetchNews(ctx context.Context, categories []string, page, limit int) (*domain.NewsPage, error) {
	args := m.Called(ctx, categories, page, limit)
	return pageArg(args)
}

func (m *MockNewsReader) FetchLatestNews(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
	args := m.Called(ctx, page, limit)
	return pageArg(args)
}

func (m *MockNewsReader) FetchNewsByID(ctx context.Context, id string) (*domain.ArticleResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ArticleResult), args.Error(1)
}

func (m *MockNewsReader) FetchNewsBySource(ctx context.Context, source string, page, limit int) (*domain.NewsPage, error) {
	args := m.Called(ctx, source, page, limit)
	return pageArg(args)
}

func pageArg(args mock.Arguments) (*domain.NewsPage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NewsPage), args.Error(1)
}

type MockPurgePublisher struct {
	mock.Mock
}

var _ domain.PurgePublisher = (*MockPurgePublisher)(nil)

func (m *MockPurgePublisher) PublishPurge(ctx context.Context, event domain.PurgeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPurgePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockContactGateway struct {
	mock.Mock
}

var _ domain.ContactGateway = (*MockContactGateway)(nil)

func (m *MockContactGateway) Forward(ctx context.Context, submission domain.ContactSubmission) domain.ContactReply {
	args := m.Called(ctx, submission)
	return args.Get(0).(domain.ContactReply)
}

// FailingStore is a CacheStore whose every call fails with Err.
type FailingStore struct {
	Err error
}

var _ domain.CacheStore = FailingStore{}

func (s FailingStore) Load(context.Context, string) (domain.CacheEntry, bool, error) {
	return domain.CacheEntry{}, false, s.Err
}

func (s FailingStore) Save(context.Context, domain.CacheEntry) error { return s.Err }
func (s FailingStore) Delete(context.Context, string) error          { return s.Err }
func (s FailingStore) DeletePrefix(context.Context, string) error    { return s.Err }
