// Package mockdata generates the placeholder articles served when the news backend
// cannot be reached. Output depends only on the inputs and the supplied clock reading,
// so the same call always yields the same ids, titles and content.
package mockdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/NewsFlow/internal/domain"
)

const (
	loremContent = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nullam euismod, nisl eget aliquam ultricies, nunc nisl aliquet nunc, quis aliquam nisl nunc eu nisl."
	defaultImage = "/images/default-news.jpg"
)

// maxGenerated bounds how many articles one generator call produces.
const maxGenerated = 200

// rotation replaces the random category pick for source articles.
var rotation = []string{"World", "Business", "Technology", "Sports", "Entertainment"}

type sample struct {
	id, title, description, url, source, category string
	hoursAgo                                      int
}

var samples = []sample{
	{"mock-1", "Technology Trends Shaping the Future of Industries", "Exploring how AI, blockchain, and IoT are transforming businesses across sectors.", "https://example.com/tech-trends", "Tech Insights", "Technology", 0},
	{"mock-2", "Global Economic Outlook Shows Signs of Recovery", "Analysts predict steady growth in emerging markets despite ongoing challenges.", "https://example.com/economic-outlook", "Business Daily", "Business", 1},
	{"mock-3", "Sports Championship Finals Set to Begin Next Week", "Top teams prepare for the ultimate showdown after a season of upsets and surprises.", "https://example.com/sports-finals", "Sports Network", "Sports", 2},
	{"mock-4", "Health Researchers Announce Breakthrough in Medical Treatment", "New approach shows promising results in early clinical trials.", "https://example.com/health-breakthrough", "Health Today", "Health", 3},
	{"mock-5", "Entertainment Industry Adapts to Changing Consumer Preferences", "Streaming platforms and content creators explore new formats and distribution models.", "https://example.com/entertainment-trends", "Entertainment Weekly", "Entertainment", 4},
}

// SampleArticles returns the fixed general-purpose sample list, newest first.
func SampleArticles(now time.Time) []domain.Article {
	out := make([]domain.Article, 0, len(samples))
	for _, s := range samples {
		out = append(out, domain.Article{
			ID:          s.id,
			Title:       s.title,
			Description: s.description,
			Content:     loremContent,
			Source:      s.source,
			Category:    s.category,
			PublishedAt: now.Add(-time.Duration(s.hoursAgo) * time.Hour),
			URL:         s.url,
			ImageURL:    defaultImage,
		})
	}
	return out
}

// FindSample looks id up in the fixed sample list.
func FindSample(id string, now time.Time) (domain.Article, bool) {
	for _, a := range SampleArticles(now) {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Article{}, false
}

// GenerateArticles builds count articles for category, at most maxGenerated.
func GenerateArticles(category string, count int, now time.Time) []domain.Article {
	count = min(count, maxGenerated)
	out := make([]domain.Article, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, domain.Article{
			ID:          fmt.Sprintf("mock-%s-%d", category, i),
			Title:       fmt.Sprintf("%s: %d - Lorem ipsum dolor sit amet consectetur", category, i+1),
			Description: "Exploring the latest developments and trends in this exciting field.",
			Content:     loremContent,
			Source:      category + " News",
			Category:    category,
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			URL:         fmt.Sprintf("https://example.com/%s-%d", strings.ToLower(category), i),
			ImageURL:    defaultImage,
		})
	}
	return out
}

// GenerateSourceArticles builds count articles attributed to source, at most maxGenerated.
func GenerateSourceArticles(source string, count int, now time.Time) []domain.Article {
	slug := slugify(source)
	count = min(count, maxGenerated)
	out := make([]domain.Article, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, domain.Article{
			ID:          fmt.Sprintf("mock-%s-%d", slug, i),
			Title:       fmt.Sprintf("%s Headline %d: Lorem ipsum dolor sit amet", source, i+1),
			Description: "Breaking news and analysis from a trusted source.",
			Content:     loremContent,
			Source:      source,
			Category:    rotation[i%len(rotation)],
			PublishedAt: now.Add(-time.Duration(i) * time.Hour),
			URL:         fmt.Sprintf("https://example.com/%s-%d", slug, i),
			ImageURL:    defaultImage,
		})
	}
	return out
}

// Placeholder synthesizes a single article carrying id.
func Placeholder(id string, now time.Time) domain.Article {
	return domain.Article{
		ID:          id,
		Title:       "Article " + id,
		Description: "This is a mock article description generated because the API request failed.",
		Content:     "This is mock content for this article. In a real application, this would be the full article content fetched from the API.",
		Source:      "Mock Source",
		Category:    "general",
		PublishedAt: now,
		URL:         "https://example.com/article",
		ImageURL:    defaultImage,
	}
}

// slugify lower-cases s and collapses whitespace runs into single dashes.
func slugify(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}
