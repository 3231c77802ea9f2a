package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stac_coverage"

var (
	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of catalog document fetches in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"scheme"},
	)

	fetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Catalog document fetch failures by kind.",
		},
		[]string{"kind"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries evicted from the in-memory cache.",
		},
	)

	traversalNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traversal_nodes_total",
			Help:      "Catalog nodes seen during traversal by outcome.",
		},
		[]string{"outcome"},
	)

	indexItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_items",
			Help:      "Items in the live index.",
		},
	)

	indexBuildSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Time to build an index from traversal output.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_refreshes_total",
			Help:      "Index refresh attempts by result.",
		},
		[]string{"result"},
	)

	queryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"operation"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route", "status"},
	)
)

func ObserveFetch(scheme string, durationSeconds float64) {
	if scheme == "" {
		scheme = "unknown"
	}
	fetchDurationSeconds.WithLabelValues(scheme).Observe(durationSeconds)
}

func IncFetchFailure(kind string) {
	fetchFailures.WithLabelValues(kind).Inc()
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

// IncCacheDiskHit counts a memory miss served from the disk tier.
func IncCacheDiskHit() { cacheResults.WithLabelValues("disk_hit").Inc() }

func IncCacheEviction() { cacheEvictions.Inc() }

// IncTraversalNode counts a node by outcome: "visited", "item", or a skip
// reason.
func IncTraversalNode(outcome string) {
	traversalNodes.WithLabelValues(outcome).Inc()
}

func ObserveIndexBuild(items int, durationSeconds float64) {
	indexItems.Set(float64(items))
	indexBuildSeconds.Observe(durationSeconds)
}

func IncRefresh(ok bool) {
	if ok {
		refreshes.WithLabelValues("ok").Inc()
		return
	}
	refreshes.WithLabelValues("error").Inc()
}

func ObserveQuery(operation string, durationSeconds float64) {
	queryDurationSeconds.WithLabelValues(operation).Observe(durationSeconds)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}
