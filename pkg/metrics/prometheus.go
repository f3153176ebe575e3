package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsIn     *prometheus.CounterVec
	rowsOut    *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	prediction *prometheus.GaugeVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		rowsIn: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_stage_rows_in_total",
				Help: "Rows entering a pipeline stage",
			},
			[]string{"stage"},
		),
		rowsOut: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_stage_rows_out_total",
				Help: "Rows leaving a pipeline stage",
			},
			[]string{"stage"},
		),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_stage_skipped_rows_total",
				Help: "Rows dropped by a pipeline stage",
			},
			[]string{"stage"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macropull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macropull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		prediction: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macropull_last_prediction",
				Help: "Latest predicted target value per series",
			},
			[]string{"series_id"},
		),
	}
}

// RecordStage records rows in and out of a stage.
func (r *Recorder) RecordStage(stage string, rowsIn, rowsOut int) {
	r.rowsIn.WithLabelValues(stage).Add(float64(rowsIn))
	r.rowsOut.WithLabelValues(stage).Add(float64(rowsOut))
}

// RecordSkipped records rows dropped by a stage.
func (r *Recorder) RecordSkipped(stage string, n int) {
	if n <= 0 {
		return
	}
	r.skipped.WithLabelValues(stage).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errors.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordPrediction stores the latest prediction for a series.
func (r *Recorder) RecordPrediction(seriesID string, value float64) {
	r.prediction.WithLabelValues(seriesID).Set(value)
}
