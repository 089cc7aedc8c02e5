package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	RecordsLoaded prometheus.Gauge
	TableReady    prometheus.Gauge

	// Control events dispatched from the page.
	Events      *prometheus.CounterVec // labels: control, outcome={ok,error}
	EventErrors prometheus.Counter

	// Scene rendering.
	RenderDuration prometheus.Histogram
	SceneTraces    prometheus.Histogram
	SceneCache     *prometheus.CounterVec // labels: result={hit,miss}

	SessionsActive prometheus.Gauge
	BadRequests    *prometheus.CounterVec // labels: route
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.TableReady,
		m.Events,
		m.EventErrors,
		m.RenderDuration,
		m.SceneTraces,
		m.SceneCache,
		m.SessionsActive,
		m.BadRequests,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "migration_dashboard",
			Name:      "records_loaded",
			Help:      "Number of tracking fixes held in memory.",
		}),
		TableReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "migration_dashboard",
			Name:      "table_ready",
			Help:      "1 once the tracking table has been loaded.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "migration_dashboard",
			Name:      "control_events_total",
			Help:      "Control change events by control id and outcome.",
		}, []string{"control", "outcome"}),
		EventErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "migration_dashboard",
			Name:      "control_event_errors_total",
			Help:      "Control change events rejected by a handler.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "migration_dashboard",
			Name:      "render_duration_seconds",
			Help:      "Time spent building a scene on a cache miss.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SceneTraces: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "migration_dashboard",
			Name:      "scene_traces",
			Help:      "Number of traces per rendered scene.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		SceneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "migration_dashboard",
			Name:      "scene_cache_total",
			Help:      "Scene cache lookups by result.",
		}, []string{"result"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "migration_dashboard",
			Name:      "sessions_active",
			Help:      "Dashboard sessions currently held in memory.",
		}),
		BadRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "migration_dashboard",
			Name:      "bad_requests_total",
			Help:      "Requests rejected with 400 by route.",
		}, []string{"route"}),
	}
}
