package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cowork_searches_total",
		Help: "Neighborhood searches by outcome",
	}, []string{"outcome"})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cowork_search_duration_ms",
		Help:    "Filter and aggregation duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	})
	SearchRows = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cowork_search_rows",
		Help:    "Rows returned per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cowork_cache_hits_total",
		Help: "Search results served from cache",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cowork_cache_misses_total",
		Help: "Searches computed because no cached result existed",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cowork_rate_limited_total",
		Help: "Requests rejected by the search rate limiter",
	})
	ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cowork_exports_total",
		Help: "Exports by format",
	}, []string{"format"})
	DatasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cowork_dataset_records",
		Help: "Records available to search",
	})
)

func init() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(SearchRows)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(ExportsTotal)
	prometheus.MustRegister(DatasetRecords)
}

// Handler exposes the registered metrics for scraping
func Handler() http.Handler { return promhttp.Handler() }
