package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheEntries prometheus.Gauge
	coalesced    prometheus.Counter
	rateLimited  prometheus.Counter
	retries      *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// yields working collectors that are not exported anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockdesk",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Outbound FMP request attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stockdesk",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of outbound FMP request attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockdesk",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		cacheEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "stockdesk",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held by the response cache.",
		}),
		coalesced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stockdesk",
			Name:      "coalesced_waiters_total",
			Help:      "Fetches that shared an in-flight upstream request.",
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: "stockdesk",
			Name:      "rate_limited_total",
			Help:      "Fetches refused because the API key's bucket was empty.",
		}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stockdesk",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retries of transient upstream failures.",
		}, []string{"endpoint"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stockdesk",
			Subsystem: "upstream",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}
	for _, r := range []lookupResult{lookupHit, lookupMiss, lookupExpired} {
		m.cacheLookups.WithLabelValues(string(r))
	}
	return m
}
