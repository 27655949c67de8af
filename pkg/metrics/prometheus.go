package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	samplesIngested  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	analysisOutcomes *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	dailyMetrics     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		samplesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatcycle_samples_ingested_total",
				Help: "Total number of sensor samples ingested per backend",
			},
			[]string{"backend", "entity_id"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatcycle_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		analysisOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heatcycle_analysis_outcomes_total",
				Help: "Daily analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heatcycle_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		dailyMetrics: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heatcycle_daily_metric",
				Help: "Latest value of each daily analysis metric",
			},
			[]string{"metric"},
		),
	}
}

// RecordSampleIngested records a sample routed to a backend.
func (r *Recorder) RecordSampleIngested(backend, entityID string) {
	r.samplesIngested.WithLabelValues(backend, entityID).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAnalysisOutcome records the outcome of one daily analysis run.
func (r *Recorder) RecordAnalysisOutcome(outcome string) {
	r.analysisOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordDailyMetric records the latest value of a daily analysis metric.
func (r *Recorder) RecordDailyMetric(name string, value float64) {
	r.dailyMetrics.WithLabelValues(name).Set(value)
}
