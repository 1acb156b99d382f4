package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "movie_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
	PipelineRunning prometheus.Gauge

	// Transform stage metrics.
	StageRows     *prometheus.GaugeVec     // labels: stage, direction={in,out}
	StageDuration *prometheus.HistogramVec // labels: stage
	StageErrors   *prometheus.CounterVec   // labels: stage

	// Load and publish metrics.
	RowsLoaded    *prometheus.CounterVec // labels: target, table
	LoadErrors    *prometheus.CounterVec // labels: target
	PublishErrors *prometheus.CounterVec // labels: publisher

	// Gatherer exposes the registry the metrics were registered with, for
	// pushing to a Pushgateway.
	Gatherer prometheus.Gatherer
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the scheduler is active, 0 when shut down.",
		}),
		StageRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_rows",
			Help:      "Rows entering and leaving each transform stage in the last run.",
		}, []string{"stage", "direction"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each transform stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"stage"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Transform stage failures.",
		}, []string{"stage"}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows written to each load target.",
		}, []string{"target", "table"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Failed table loads by target.",
		}, []string{"target"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed output publications by publisher.",
		}, []string{"publisher"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsTotal,
		m.RunDuration,
		m.LastSuccess,
		m.PipelineRunning,
		m.StageRows,
		m.StageDuration,
		m.StageErrors,
		m.RowsLoaded,
		m.LoadErrors,
		m.PublishErrors,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.Gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.Gatherer = reg
	return m
}
