package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Backend weather API.
	ForecastRequests *prometheus.CounterVec // labels: outcome={success,invalid,land,error}
	UpstreamDuration prometheus.Histogram
	UpstreamRetries  prometheus.Counter
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,expired}
	PublishErrors    prometheus.Counter

	// Browser map sessions.
	ActiveSessions prometheus.Gauge
	SessionFetches *prometheus.CounterVec // labels: outcome={succeeded,failed,land,missing,stale}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastRequests,
		m.UpstreamDuration,
		m.UpstreamRetries,
		m.CacheLookups,
		m.PublishErrors,
		m.ActiveSessions,
		m.SessionFetches,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_risk",
			Name:      "forecast_requests_total",
			Help:      "Backend forecast requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marine_risk",
			Name:      "upstream_duration_seconds",
			Help:      "Open-Meteo Marine API request duration in seconds, including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		UpstreamRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_risk",
			Name:      "upstream_retries_total",
			Help:      "Retried Open-Meteo Marine API requests.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_risk",
			Name:      "cache_lookups_total",
			Help:      "Marine conditions cache lookups by result.",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_risk",
			Name:      "publish_errors_total",
			Help:      "Forecast records that could not be published.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "marine_risk",
			Name:      "active_sessions",
			Help:      "Connected map sessions.",
		}),
		SessionFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_risk",
			Name:      "session_fetches_total",
			Help:      "Forecast fetches triggered from map sessions by outcome.",
		}, []string{"outcome"}),
	}
}
