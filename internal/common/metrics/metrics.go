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
)

var (
	ChartSpecsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_specs_generated_total",
			Help: "Total number of chart specifications produced, by source",
		},
		[]string{"source"},
	)

	ChartFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chart_fallbacks_total",
			Help: "Total number of fallback parses, by reason",
		},
		[]string{"reason"},
	)

	OracleRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_requests_total",
			Help: "Total number of text generation requests, by outcome",
		},
		[]string{"outcome"},
	)

	OracleRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oracle_request_duration_seconds",
			Help:    "Duration of text generation requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	BillingRecordCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_record_cache_total",
			Help: "Billing record cache lookups, by result",
		},
		[]string{"result"},
	)
)
