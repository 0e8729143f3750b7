package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports listing metrics via a Prometheus registry.
type PrometheusRecorder struct {
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	queryDuration    prometheus.Histogram
	responseDuration prometheus.Histogram
	resultCount      prometheus.Histogram
}

// NewPrometheus registers the listing metrics on reg and returns the
// recorder. Registering the same recorder twice on one registry panics,
// so construct it once at process start.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "custograph_list_cache_hits_total",
			Help: "Number of listing requests served from the page cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "custograph_list_cache_misses_total",
			Help: "Number of listing requests that recomputed the page.",
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "custograph_list_query_duration_seconds",
			Help:    "Duration of the store round-trip for listing requests.",
			Buckets: prometheus.DefBuckets,
		}),
		responseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "custograph_list_response_duration_seconds",
			Help:    "Total duration of listing requests.",
			Buckets: prometheus.DefBuckets,
		}),
		resultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "custograph_list_result_count",
			Help:    "Number of users returned per listing page.",
			Buckets: []float64{0, 1, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}

	reg.MustRegister(r.cacheHits, r.cacheMisses, r.queryDuration, r.responseDuration, r.resultCount)

	return r
}

// IncListCacheHit increments the page cache hit counter.
func (r *PrometheusRecorder) IncListCacheHit() {
	r.cacheHits.Inc()
}

// IncListCacheMiss increments the page cache miss counter.
func (r *PrometheusRecorder) IncListCacheMiss() {
	r.cacheMisses.Inc()
}

// ObserveQueryDuration records one store round-trip duration.
func (r *PrometheusRecorder) ObserveQueryDuration(duration time.Duration) {
	r.queryDuration.Observe(duration.Seconds())
}

// ObserveResponseDuration records one full response duration.
func (r *PrometheusRecorder) ObserveResponseDuration(duration time.Duration) {
	r.responseDuration.Observe(duration.Seconds())
}

// ObserveResultCount records how many users a page carried.
func (r *PrometheusRecorder) ObserveResultCount(count int) {
	r.resultCount.Observe(float64(count))
}
