// Package metrics exposes Prometheus collectors for the SSR edge.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	rendersTotal            *prometheus.CounterVec
	cacheLookupsTotal       *prometheus.CounterVec
	cacheWritesTotal        *prometheus.CounterVec
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamDurationSeconds *prometheus.HistogramVec
	crawlerRequestsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		rendersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoedge_renders_total",
				Help: "Responses produced by the dispatchers, labeled by route and render path.",
			},
			[]string{"route", "path"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoedge_cache_lookups_total",
				Help: "Cache lookups, labeled by namespace and result (hit, miss, error).",
			},
			[]string{"namespace", "result"},
		)

		cacheWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoedge_cache_writes_total",
				Help: "Background cache writes, labeled by outcome (stored, failed, dropped).",
			},
			[]string{"outcome"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoedge_upstream_requests_total",
				Help: "Content API requests, labeled by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		)

		upstreamDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "seoedge_upstream_duration_seconds",
				Help:    "Histogram of Content API latencies, labeled by endpoint.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 3, 5, 8},
			},
			[]string{"endpoint"},
		)

		crawlerRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seoedge_client_requests_total",
				Help: "Dispatcher requests, labeled by client classification.",
			},
			[]string{"class"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRender counts one dispatcher response.
func ObserveRender(route, path string) {
	Init()
	rendersTotal.WithLabelValues(route, path).Inc()
}

// ObserveCacheLookup counts one cache lookup.
func ObserveCacheLookup(namespace, result string) {
	Init()
	cacheLookupsTotal.WithLabelValues(namespace, result).Inc()
}

// ObserveCacheWrite counts one background cache write.
func ObserveCacheWrite(outcome string) {
	Init()
	cacheWritesTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records one Content API request.
func ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	Init()
	upstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	upstreamDurationSeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveClient counts one classified dispatcher request.
func ObserveClient(class string) {
	Init()
	crawlerRequestsTotal.WithLabelValues(class).Inc()
}
