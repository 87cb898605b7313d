// Package metrics records unit execution metrics in Prometheus format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/runner"
)

// Recorder is a runner.Listener that counts executions, failures by phase and
// reporting entries. Its collectors live on a dedicated registry so several
// recorders can coexist.
type Recorder struct {
	runner.NopListener

	registry      *prometheus.Registry
	executions    *prometheus.CounterVec
	duration      prometheus.Histogram
	phaseFailures *prometheus.CounterVec
	entries       prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gauntlet_unit_executions_total",
				Help: "Unit executions by final status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gauntlet_unit_duration_seconds",
				Help:    "Wall time of executed units",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
			},
		),
		phaseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gauntlet_phase_failures_total",
				Help: "Collected failures by lifecycle phase",
			},
			[]string{"phase"},
		),
		entries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gauntlet_reporting_entries_total",
				Help: "Reporting entries published by extensions",
			},
		),
	}

	r.registry.MustRegister(r.executions, r.duration, r.phaseFailures, r.entries)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ExecutionSkipped implements runner.Listener.
func (r *Recorder) ExecutionSkipped(*engine.Unit, string) {
	r.executions.WithLabelValues(engine.StatusSkipped.String()).Inc()
}

// ExecutionFinished implements runner.Listener.
func (r *Recorder) ExecutionFinished(_ *engine.Unit, result engine.Result) {
	r.executions.WithLabelValues(result.Status.String()).Inc()
	if result.Status == engine.StatusAborted {
		return
	}
	r.duration.Observe(result.Duration.Seconds())
	for _, f := range result.Failures {
		r.phaseFailures.WithLabelValues(f.Phase.String()).Inc()
	}
}

// ReportingEntryPublished implements runner.Listener.
func (r *Recorder) ReportingEntryPublished(string, map[string]string) {
	r.entries.Inc()
}

// WriteTextfile writes the current metrics to path in the text exposition
// format, for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(errors.Unknown, err, "writing metrics to %s", path).WithOp("metrics.WriteTextfile")
	}
	return nil
}

var _ runner.Listener = (*Recorder)(nil)
