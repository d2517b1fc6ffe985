// Package metrics records training outcomes in a Prometheus registry.
package metrics

import (
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TrainingMetrics holds the collectors updated during training runs.
type TrainingMetrics struct {
	registry *prometheus.Registry

	CandidatesTotal   *prometheus.CounterVec
	CandidateDuration *prometheus.HistogramVec
	BestTestMAE       *prometheus.GaugeVec
	RunsTotal         prometheus.Counter
	LastRunTimestamp  prometheus.Gauge
}

var _ contract.TrainingObserver = (*TrainingMetrics)(nil)

// NewTrainingMetrics creates the collectors on a private registry.
func NewTrainingMetrics() *TrainingMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &TrainingMetrics{
		registry: reg,
		CandidatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emforecast_candidates_total",
				Help: "Candidate models trained, by slot and outcome",
			},
			[]string{"slot", "outcome"},
		),
		CandidateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emforecast_candidate_duration_seconds",
				Help:    "Time spent training one candidate model",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"slot"},
		),
		BestTestMAE: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "emforecast_best_test_mae",
				Help: "Held-out MAE of the selected model of the last run",
			},
			[]string{"slot"},
		),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "emforecast_training_runs_total",
			Help: "Completed training runs",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "emforecast_last_run_timestamp_seconds",
			Help: "Unix time of the last completed training run",
		}),
	}
}

// ObserveCandidate counts one candidate outcome and its training time.
func (m *TrainingMetrics) ObserveCandidate(slot schema.ModelKind, outcome string, elapsed time.Duration) {
	m.CandidatesTotal.WithLabelValues(string(slot), outcome).Inc()
	m.CandidateDuration.WithLabelValues(string(slot)).Observe(elapsed.Seconds())
}

// ObserveBest records the selected model. Only the latest selection is kept.
func (m *TrainingMetrics) ObserveBest(slot schema.ModelKind, testMAE float64) {
	m.BestTestMAE.Reset()
	m.BestTestMAE.WithLabelValues(string(slot)).Set(testMAE)
	m.RunsTotal.Inc()
	m.LastRunTimestamp.SetToCurrentTime()
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *TrainingMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToFile writes all metrics in the text exposition format, for the node exporter textfile collector.
func (m *TrainingMetrics) WriteToFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
