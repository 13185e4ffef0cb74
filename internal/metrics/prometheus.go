package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "predictor"

type Prometheus struct {
	Epochs      *prometheus.CounterVec
	Loss        *prometheus.GaugeVec
	Scores      *prometheus.GaugeVec
	Artifacts   *prometheus.CounterVec
	Checkpoints *prometheus.CounterVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Epochs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "epochs",
				Help:      "training epochs completed",
			}, []string{"kind"}),
		Loss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "loss",
				Help:      "log loss of the latest epoch",
			}, []string{"kind", "set"}),
		Scores: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "score",
				Help:      "evaluation scores on the test segment",
			}, []string{"kind", "metric"}),
		Artifacts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts",
				Help:      "model artifacts saved",
			}, []string{"kind"}),
		Checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoints",
				Help:      "training checkpoints written",
			}, []string{"kind", "status"}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Epochs, p.Loss, p.Scores, p.Artifacts, p.Checkpoints}
}
