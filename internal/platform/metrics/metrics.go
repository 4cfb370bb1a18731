package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Catalog metrics
	CatalogRefreshes *prometheus.CounterVec
	StaleServes      prometheus.Counter
	DetailCacheHits  prometheus.Counter
	DetailCacheMiss  prometheus.Counter

	// Auth metrics
	LoginsCompleted prometheus.Counter
	AuthFailures    prometheus.Counter
	ActiveSessions  prometheus.Gauge

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CatalogRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "playdex_catalog_refreshes_total",
			Help: "Total number of catalog index refresh attempts, labeled by outcome",
		}, []string{"outcome"}),
		StaleServes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playdex_catalog_stale_serves_total",
			Help: "Total number of index reads answered with a stale snapshot after a failed refresh",
		}),
		DetailCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playdex_detail_cache_hits_total",
			Help: "Total number of app detail lookups served from cache",
		}),
		DetailCacheMiss: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playdex_detail_cache_misses_total",
			Help: "Total number of app detail lookups that went upstream",
		}),
		LoginsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playdex_logins_total",
			Help: "Total number of completed delegated logins",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "playdex_auth_failures_total",
			Help: "Total number of failed callback verifications",
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "playdex_active_sessions",
			Help: "Current number of live sessions",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "playdex_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) ObserveRefresh(outcome string) {
	m.CatalogRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementActiveSessions() {
	m.ActiveSessions.Inc()
}

func (m *Metrics) DecrementActiveSessions(count int) {
	m.ActiveSessions.Sub(float64(count))
}

// ObserveEndpointLatency records the latency for a given endpoint
// in seconds.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
