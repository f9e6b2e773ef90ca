package domain

import (
	"context"
	"net/url"
	"time"
)

// Article is a single news item as served by the news backend.
type Article struct {
	ID          string    `json:"_id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Content     string    `json:"content" bson:"content"`
	Source      string    `json:"source" bson:"source"` // e.g., "BBC News"
	Category    string    `json:"category" bson:"category"`
	PublishedAt time.Time `json:"publishedAt" bson:"published_at"`
	URL         string    `json:"url,omitempty" bson:"url,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
}

// Provenance tells consumers whether a page came from the backend or was generated locally.
type Provenance int

const (
	ProvenanceLive Provenance = iota
	ProvenanceMock
)

func (p Provenance) String() string {
	if p == ProvenanceMock {
		return "mock"
	}
	return "live"
}

// NewsPage is a paginated listing. Provenance is not part of the backend payload;
// it is rendered as isMockData on the JSON surface.
type NewsPage struct {
	Results    []Article  `json:"results"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Provenance Provenance `json:"-"`
}

// IsMock reports whether the page holds generated sample content.
func (p *NewsPage) IsMock() bool {
	return p.Provenance == ProvenanceMock
}

// ArticleResult is the by-id counterpart of NewsPage.
type ArticleResult struct {
	Article    Article
	Provenance Provenance
}

// NewsAPI is the outbound port to the news backend. Implementations perform exactly one
// request per call; retries and fallbacks belong to the caller.
type NewsAPI interface {
	// GetJSON issues GET {base}/{path}?{query} and returns the raw 2xx body.
	GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// NewsReader is what consumers (HTTP handlers, CLI) depend on.
type NewsReader interface {
	FetchNews(ctx context.Context, categories []string, page, limit int) (*NewsPage, error)
	FetchLatestNews(ctx context.Context, page, limit int) (*NewsPage, error)
	FetchNewsByID(ctx context.Context, id string) (*ArticleResult, error)
	FetchNewsBySource(ctx context.Context, source string, page, limit int) (*NewsPage, error)
}
