package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitesearch"

// Search Prometheus metrics.
var (
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Total number of search calls",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"mode"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of records returned per search",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	ScoredRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scored_rows_total",
			Help:      "Rows ranked in memory by the relevance scorer",
		},
	)

	AttributeCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribute_cache_total",
			Help:      "Attribute definition cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var registerSearch sync.Once

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	registerSearch.Do(func() {
		prometheus.MustRegister(SearchTotal)
		prometheus.MustRegister(SearchDuration)
		prometheus.MustRegister(SearchResults)
		prometheus.MustRegister(ScoredRowsTotal)
		prometheus.MustRegister(AttributeCacheTotal)
	})
}
