// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_turns_processed_total",
			Help: "Inbound messages processed, by resulting step and classified intent",
		},
		[]string{"step", "intent"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversation_turn_duration_seconds",
			Help:    "Duration of one pipeline run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	GenerationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_generation_fallbacks_total",
			Help: "Responses served from the step template because generation failed",
		},
		[]string{"reason"},
	)

	LeadsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_leads_emitted_total",
			Help: "Leads persisted, by product",
		},
		[]string{"product_type"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_persistence_failures_total",
			Help: "Persistence calls that failed, by operation",
		},
		[]string{"operation"},
	)

	SessionLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversation_session_lock_wait_seconds",
			Help:    "Time spent waiting for the per-session lock",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	OutboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_gateway_messages_total",
			Help: "Outbound chat messages handed to the gateway, by result",
		},
		[]string{"result"},
	)

	LeadDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_dispatch_total",
			Help: "Lead fan-out deliveries, by sink and result",
		},
		[]string{"sink", "result"},
	)

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
