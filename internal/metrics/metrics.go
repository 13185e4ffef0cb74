package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	TrainSet      = "train"
	ValidationSet = "validation"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.collectors()...)
}

type Metrics struct {
	prometheus Prometheus
}

// Epoch tracks a completed training epoch.
func (m *Metrics) Epoch(kind string, loss, valLoss float64) {
	m.prometheus.Epochs.WithLabelValues(kind).Inc()
	m.prometheus.Loss.WithLabelValues(kind, TrainSet).Set(loss)
	m.prometheus.Loss.WithLabelValues(kind, ValidationSet).Set(valLoss)
}

// Score publishes an evaluation score.
func (m *Metrics) Score(kind, metric string, value float64) {
	m.prometheus.Scores.WithLabelValues(kind, metric).Set(value)
}

// Artifact tracks a saved model artifact.
func (m *Metrics) Artifact(kind string) {
	m.prometheus.Artifacts.WithLabelValues(kind).Inc()
}

// Checkpoint tracks a checkpoint attempt.
func (m *Metrics) Checkpoint(kind string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.prometheus.Checkpoints.WithLabelValues(kind, status).Inc()
}
