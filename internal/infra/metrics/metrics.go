package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_fetch_attempts_total",
			Help: "Backend requests issued by the fetch orchestrator",
		},
		[]string{"operation", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "news_fetch_duration_seconds",
			Help:    "Duration of fetch operations including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_lookups_total",
			Help: "Cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_io_errors_total",
			Help: "Swallowed cache store errors",
		},
		[]string{"op"},
	)

	MockFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_mock_fallbacks_total",
			Help: "Responses served from generated sample content",
		},
		[]string{"operation"},
	)

	DedupedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_deduplicated_requests_total",
			Help: "Callers that joined an in-flight request instead of issuing their own",
		},
		[]string{"layer"},
	)

	StaleServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "news_stale_served_total",
			Help: "Expired source entries returned because a refresh failed",
		},
	)

	CachePurges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_cache_purges_total",
			Help: "Cache purges by origin",
		},
		[]string{"origin"},
	)

	ContactForwards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_forwards_total",
			Help: "Contact form submissions by resulting status class",
		},
		[]string{"status"},
	)
)
