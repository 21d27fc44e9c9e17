package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truetone_jobs_submitted_total",
		Help: "Total number of colourisation jobs submitted",
	})

	JobsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truetone_jobs_completed_total",
		Help: "Total number of jobs completed successfully",
	})

	JobsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truetone_jobs_failed_total",
		Help: "Total number of jobs that failed processing",
	})

	JobProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "truetone_job_processing_duration_seconds",
		Help:    "Time taken to process one job end to end in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	QueuePollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "truetone_queue_poll_errors_total",
		Help: "Total number of failed queue receive attempts",
	})
)
