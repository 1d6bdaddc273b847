// Package metrics provides Prometheus metrics for the migration pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepRunsTotal tracks completed pipeline steps by status
	StepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopmigrate",
			Subsystem: "pipeline",
			Name:      "steps_total",
			Help:      "Total number of pipeline step runs by status",
		},
		[]string{"step", "status"},
	)

	// StepDuration tracks step duration in seconds
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopmigrate",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Duration of pipeline steps in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"step"},
	)

	// RecordsMigrated tracks records written to the target by entity kind
	RecordsMigrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopmigrate",
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Total number of records migrated by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// BatchesProcessed tracks batch executor terminal batches
	BatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopmigrate",
			Subsystem: "batch",
			Name:      "batches_total",
			Help:      "Total number of batches by terminal status",
		},
		[]string{"status"},
	)

	// BatchRetries tracks batch attempt retries
	BatchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shopmigrate",
			Subsystem: "batch",
			Name:      "retries_total",
			Help:      "Total number of batch attempt retries",
		},
	)

	// TranslationRequests tracks translator capability calls
	TranslationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopmigrate",
			Subsystem: "translator",
			Name:      "requests_total",
			Help:      "Total number of translate calls by status",
		},
		[]string{"status"},
	)

	// TranslationDuration tracks translator call duration
	TranslationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shopmigrate",
			Subsystem: "translator",
			Name:      "request_duration_seconds",
			Help:      "Duration of translate calls in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// SourceQueryDuration tracks source fetch duration
	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopmigrate",
			Subsystem: "source",
			Name:      "query_duration_seconds",
			Help:      "Duration of source database fetches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"reader"},
	)
)

// RecordStep records a step run with its duration.
func RecordStep(step, status string, durationSeconds float64) {
	StepRunsTotal.WithLabelValues(step, status).Inc()
	StepDuration.WithLabelValues(step).Observe(durationSeconds)
}

// RecordBatch records a terminal batch.
func RecordBatch(status string) {
	BatchesProcessed.WithLabelValues(status).Inc()
}

// RecordTranslation records a translate call.
func RecordTranslation(status string, durationSeconds float64) {
	TranslationRequests.WithLabelValues(status).Inc()
	TranslationDuration.Observe(durationSeconds)
}
