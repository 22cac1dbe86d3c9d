// Package metrics keeps per-source collection counters in a private
// Prometheus registry. feedlog is a batch job, so the registry is
// exported by writing a node_exporter textfile after each run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xtxerr/feedlog/internal/constants"
)

const namespace = "feedlog"

// Metrics holds the collector metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	rowsAppended *prometheus.CounterVec
	lastSuccess  *prometheus.GaugeVec
	fetchTime    *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "runs_total",
				Help:      "Collection runs per source, by result (ok, upstream, persistence, internal)",
			},
			[]string{"source", "result"},
		),
		rowsAppended: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "rows_appended_total",
				Help:      "Rows appended to the source's table",
			},
			[]string{"source"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run of the source",
			},
			[]string{"source"},
		),
		fetchTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "fetch_duration_seconds",
				Help:      "Time spent fetching and appending one source",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
	}

	m.registry.MustRegister(m.runs, m.rowsAppended, m.lastSuccess, m.fetchTime)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSource records the outcome of one source in one run.
// result is an errors.Kind label.
func (m *Metrics) ObserveSource(source, result string, rows int, d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(source, result).Inc()
	m.fetchTime.WithLabelValues(source).Observe(d.Seconds())
	if result != constants.ResultOK {
		return
	}
	m.rowsAppended.WithLabelValues(source).Add(float64(rows))
	m.lastSuccess.WithLabelValues(source).Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in text exposition format. The file
// is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
