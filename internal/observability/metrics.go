package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gauge_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for gauge sweeps.
type Metrics struct {
	GaugesDiscovered prometheus.Counter
	GaugesProcessed  prometheus.Counter
	GaugeFailures    *prometheus.CounterVec // labels: stage={details,stageflow,reach,historical_forecast}

	// Cache and fetch metrics.
	CacheLookups  *prometheus.CounterVec   // labels: kind, result={fresh,stale,absent}
	Fetches       *prometheus.CounterVec   // labels: data_type, outcome={success,error,rate_limited}
	FetchDuration *prometheus.HistogramVec // labels: data_type

	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter

	SweepDuration prometheus.Histogram
	LastSweep     prometheus.Gauge
	SweepRunning  prometheus.Gauge
}

// NewMetrics creates and registers all sweep metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GaugesDiscovered,
		m.GaugesProcessed,
		m.GaugeFailures,
		m.CacheLookups,
		m.Fetches,
		m.FetchDuration,
		m.SnapshotsPublished,
		m.PublishErrors,
		m.SweepDuration,
		m.LastSweep,
		m.SweepRunning,
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
		GaugesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gauges_discovered_total",
			Help:      "Total gauges returned by site discovery.",
		}),
		GaugesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gauges_processed_total",
			Help:      "Total gauges whose four stages all completed.",
		}),
		GaugeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gauge_failures_total",
			Help:      "Gauges skipped after a stage failure, by stage.",
		}, []string{"stage"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by data kind and freshness.",
		}, []string{"kind", "result"}),
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "NWPS fetch attempts by data type and outcome.",
		}, []string{"data_type", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "NWPS request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"data_type"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Fresh snapshots written to the snapshot topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_publish_errors_total",
			Help:      "Snapshot publish failures.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a complete discovery and fetch sweep.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time the last sweep finished.",
		}),
		SweepRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_running",
			Help:      "1 while a sweep is in progress, 0 otherwise.",
		}),
	}
}
