// Package metrics exposes Prometheus counters for the HTTP layer and the
// scheduling services. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carpool/internal/carpool"
)

const namespace = "carpool"

type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	saves       *prometheus.CounterVec
	suggestions *prometheus.CounterVec
	creditCache *prometheus.CounterVec
	catalogSync *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "day_saves_total",
			Help: "Day saves by result.",
		}, []string{"result"}),
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "suggestions_total",
			Help: "Computed suggestions by kind.",
		}, []string{"kind"}),
		creditCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "credit_cache_lookups_total",
			Help: "Credit cache lookups by result.",
		}, []string{"result"}),
		catalogSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "catalog_sync_total",
			Help: "Catalog mirror uploads by table and result.",
		}, []string{"table", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.saves, m.suggestions, m.creditCache, m.catalogSync,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) DaySaved(err error) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(result(err == nil)).Inc()
}

func (m *Metrics) Suggested(s carpool.Suggestion) {
	if m == nil {
		return
	}
	kind := "recommended"
	switch {
	case s.NoCarpool:
		kind = "no_carpool"
	case s.IsExplicit:
		kind = "explicit"
	}
	m.suggestions.WithLabelValues(kind).Inc()
}

func (m *Metrics) CreditCacheLookup(hit bool) {
	if m == nil {
		return
	}
	r := "miss"
	if hit {
		r = "hit"
	}
	m.creditCache.WithLabelValues(r).Inc()
}

func (m *Metrics) CatalogSynced(table string, ok bool) {
	if m == nil {
		return
	}
	m.catalogSync.WithLabelValues(table, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
