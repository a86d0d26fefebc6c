// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	BatchesPriced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_batches_priced_total",
			Help: "Total number of borrower batches priced",
		},
	)

	BorrowersPriced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_borrowers_priced_total",
			Help: "Total number of borrower records priced",
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_batch_size",
			Help:    "Number of borrower records per priced batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	MatrixUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_matrix_updates_total",
			Help: "Total number of adjustment matrix updates by outcome",
		},
		[]string{"outcome"},
	)
)
