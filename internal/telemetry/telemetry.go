// Package telemetry defines the Prometheus metrics shared across subsystems.
package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagehound_pages_fetched_total",
			Help: "Total number of pages fetched, labeled by HTTP status.",
		},
		[]string{"status"},
	)

	fetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagehound_fetch_retries_total",
			Help: "Total number of fetch retry attempts.",
		},
	)

	tasksFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagehound_tasks_failed_total",
			Help: "Total number of crawl tasks dropped after exhausting retries.",
		},
	)

	robotsDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagehound_robots_denied_total",
			Help: "Total number of fetches rejected by robots policy, labeled by host.",
		},
		[]string{"host"},
	)

	rateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagehound_rate_limit_delay_seconds",
			Help:    "Histogram of per-host politeness wait durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)

	searchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagehound_search_duration_seconds",
			Help:    "Histogram of end-to-end search latencies.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	documentsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagehound_documents_indexed",
			Help: "Number of documents currently in the inverted index.",
		},
	)

	termsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagehound_terms_indexed",
			Help: "Number of distinct terms currently in the inverted index.",
		},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagehound_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route", "code"},
	)
)

// ObservePageFetched records a completed fetch with its HTTP status.
func ObservePageFetched(status int) {
	pagesFetchedTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveFetchRetry records a retry attempt.
func ObserveFetchRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveTaskFailed records a task dropped after exhausting retries.
func ObserveTaskFailed() {
	tasksFailedTotal.Inc()
}

// ObserveRobotsDenied records a robots rejection for a host.
func ObserveRobotsDenied(host string) {
	robotsDeniedTotal.WithLabelValues(host).Inc()
}

// ObserveRateLimitDelay records a politeness wait for a host.
func ObserveRateLimitDelay(host string, d time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(host).Observe(d.Seconds())
}

// ObserveSearch records the latency of one search call.
func ObserveSearch(d time.Duration) {
	searchDurationSeconds.Observe(d.Seconds())
}

// SetIndexSize publishes the current index cardinalities.
func SetIndexSize(documents, terms int) {
	documentsIndexed.Set(float64(documents))
	termsIndexed.Set(float64(terms))
}

// ObserveHTTPRequest records one served HTTP request.
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	httpRequestDurationSeconds.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}
