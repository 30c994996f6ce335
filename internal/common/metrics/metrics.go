// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type", "priority", "target_role"},
	)

	NotificationPersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_persist_failures_total",
			Help: "Total number of notification create calls aborted by a store failure",
		},
		[]string{"type"},
	)

	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_deliveries_total",
			Help: "Channel send outcomes per notification",
		},
		[]string{"channel", "outcome"},
	)

	ChannelRecipients = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_channel_recipients",
			Help:    "Number of recipients attempted per channel send",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
		[]string{"channel"},
	)

	CreateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_create_duration_seconds",
			Help: "Duration of notification create calls including fan-out",
		},
		[]string{"type"},
	)

	StatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_status_updates_total",
			Help: "Notifications moved to READ",
		},
		[]string{"target_role", "operation"},
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
)
