package mockdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func TestGenerateArticles_Deterministic(t *testing.T) {
	first := GenerateArticles("Sports", 3, fixedNow)
	second := GenerateArticles("Sports", 3, fixedNow.Add(time.Minute))

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].Content, second[i].Content)
	}

	assert.Equal(t, "mock-Sports-0", first[0].ID)
	assert.Equal(t, "Sports: 1 - Lorem ipsum dolor sit amet consectetur", first[0].Title)
	assert.Equal(t, "Sports News", first[0].Source)
	assert.Equal(t, "https://example.com/sports-2", first[2].URL)
	assert.Equal(t, fixedNow.Add(-2*time.Hour), first[2].PublishedAt)
}

func TestGenerateArticles_NonPositiveCount(t *testing.T) {
	assert.Empty(t, GenerateArticles("World", 0, fixedNow))
	assert.Empty(t, GenerateArticles("World", -4, fixedNow))
}

func TestGenerateSourceArticles(t *testing.T) {
	articles := GenerateSourceArticles("BBC  News", 6, fixedNow)
	require.Len(t, articles, 6)

	assert.Equal(t, "mock-bbc-news-0", articles[0].ID)
	assert.Equal(t, "BBC  News Headline 1: Lorem ipsum dolor sit amet", articles[0].Title)
	for _, a := range articles {
		assert.Equal(t, "BBC  News", a.Source)
	}
	// Categories rotate instead of being random
	assert.Equal(t, "World", articles[0].Category)
	assert.Equal(t, "Entertainment", articles[4].Category)
	assert.Equal(t, "World", articles[5].Category)

	again := GenerateSourceArticles("BBC  News", 6, fixedNow)
	assert.Equal(t, articles, again)
}

func TestSampleArticlesAndFind(t *testing.T) {
	samples := SampleArticles(fixedNow)
	require.Len(t, samples, 5)
	assert.Equal(t, "mock-1", samples[0].ID)
	assert.Equal(t, fixedNow.Add(-4*time.Hour), samples[4].PublishedAt)

	a, ok := FindSample("mock-3", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "Sports Network", a.Source)

	_, ok = FindSample("nope", fixedNow)
	assert.False(t, ok)
}

func TestPlaceholder(t *testing.T) {
	a := Placeholder("abc123", fixedNow)
	assert.Equal(t, "abc123", a.ID)
	assert.Equal(t, "Article abc123", a.Title)
	assert.Equal(t, "Mock Source", a.Source)
	assert.Equal(t, fixedNow, a.PublishedAt)
}
