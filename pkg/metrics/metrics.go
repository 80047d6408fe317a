// Package metrics provides Prometheus metrics for the canteen registry
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kantineguiden"

// Manager owns all Prometheus collectors of the service. A nil *Manager is
// valid and records nothing, so instrumented components never need a nil
// guard of their own.
type Manager struct {
	registry *prometheus.Registry

	reviewsSubmitted  prometheus.Counter
	reviewsDuplicate  prometheus.Counter
	reviewsEdited     prometheus.Counter
	canteensCreated   prometheus.Counter
	txnRetries        prometheus.Counter
	lookupCacheHits   *prometheus.CounterVec
	lookupCacheMisses *prometheus.CounterVec
	upstreamDuration  *prometheus.HistogramVec
	httpDuration      *prometheus.HistogramVec
}

// NewManager builds a Manager on a fresh registry, keeping the default Go
// collectors out of the scrape output.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		reviewsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Reviews accepted and applied to canteen aggregates.",
		}),
		reviewsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_duplicate_total",
			Help:      "Review submissions suppressed as per-client duplicates.",
		}),
		reviewsEdited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_edited_total",
			Help:      "In-place review edits applied to canteen aggregates.",
		}),
		canteensCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "canteens_created_total",
			Help:      "New canteen identities registered.",
		}),
		txnRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_retries_total",
			Help:      "Storage transactions retried after a transient conflict.",
		}),
		lookupCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_cache_hits_total",
			Help:      "Upstream lookup responses served from cache.",
		}, []string{"source"}),
		lookupCacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_cache_misses_total",
			Help:      "Upstream lookup cache misses.",
		}, []string{"source"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of upstream registry and geocoding calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of handled HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the scrape endpoint for the manager's registry.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) ReviewSubmitted() {
	if m == nil {
		return
	}
	m.reviewsSubmitted.Inc()
}

func (m *Manager) ReviewDuplicate() {
	if m == nil {
		return
	}
	m.reviewsDuplicate.Inc()
}

func (m *Manager) ReviewEdited() {
	if m == nil {
		return
	}
	m.reviewsEdited.Inc()
}

func (m *Manager) CanteenCreated() {
	if m == nil {
		return
	}
	m.canteensCreated.Inc()
}

func (m *Manager) TransactionRetried() {
	if m == nil {
		return
	}
	m.txnRetries.Inc()
}

func (m *Manager) CacheHit(source string) {
	if m == nil {
		return
	}
	m.lookupCacheHits.WithLabelValues(source).Inc()
}

func (m *Manager) CacheMiss(source string) {
	if m == nil {
		return
	}
	m.lookupCacheMisses.WithLabelValues(source).Inc()
}

func (m *Manager) ObserveUpstream(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Manager) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
