package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic_case_service"

var metricsEnabled = true

// HTTP edge
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served, by route template and status code.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)
	rateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the redis rate limiter.",
		},
		[]string{"route"},
	)
)

// Inbound webhook
var (
	webhookEventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_received_total",
			Help:      "Inbound WhatsApp webhook payloads, by provider event type.",
		},
		[]string{"event_type"},
	)
	webhookOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_outcomes_total",
			Help:      "Result of processing an inbound message (provisioned, logged, dropped, failed...).",
		},
		[]string{"outcome", "error_type"},
	)
	webhookProcessingDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_processing_duration_seconds",
			Help:      "Time spent handling one inbound webhook payload.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)

// Storage
var dbOperationDurationSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_operation_duration_seconds",
		Help:      "Duration of repository operations against Postgres.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "entity", "status"},
)

// Outbound WhatsApp and notification pool
var (
	whatsappSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "whatsapp_sends_total",
			Help:      "Outbound WhatsApp API calls by message kind and status.",
		},
		[]string{"kind", "status"},
	)
	whatsappSendDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "whatsapp_send_duration_seconds",
			Help:      "Latency of outbound WhatsApp API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9),
		},
		[]string{"kind"},
	)
	notificationTasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_tasks_submitted_total",
			Help:      "Tasks handed to the notification worker pool.",
		},
		[]string{"kind"},
	)
	notificationTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_tasks_processed_total",
			Help:      "Notification tasks finished, by status (success, failure, overload, panic).",
		},
		[]string{"kind", "status"},
	)
	notificationProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_processing_duration_seconds",
			Help:      "Time a notification task spent on a worker.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	notificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_length",
			Help:      "Tasks waiting for a free notification worker.",
		},
	)
)

// Domain events
var domainEventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_events_published_total",
		Help:      "Domain events published to JetStream, by subject and status.",
	},
	[]string{"subject", "status"},
)

// Load generator (cmd/tester)
var (
	loadgenRequestsAttemptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loadgen_webhook_requests_attempted_total",
			Help:      "Webhook requests the load generator attempted.",
		},
		[]string{"scenario"},
	)
	loadgenRequestsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loadgen_webhook_requests_failed_total",
			Help:      "Webhook requests the load generator could not deliver.",
		},
		[]string{"scenario"},
	)
)

// InitMetrics toggles collection. The collectors are registered by promauto
// regardless; disabling only stops the helpers from recording.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveHTTPRequest records one served request. route is the gin route
// template, never the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func IncRateLimitRejection(route string) {
	if metricsEnabled {
		rateLimitRejectionsTotal.WithLabelValues(route).Inc()
	}
}

func IncWebhookEventReceived(eventType string) {
	if !metricsEnabled {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEventsReceivedTotal.WithLabelValues(eventType).Inc()
}

// IncWebhookOutcome records how an inbound message was resolved. err may be nil.
func IncWebhookOutcome(outcome string, err error) {
	if !metricsEnabled {
		return
	}
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	webhookOutcomesTotal.WithLabelValues(outcome, SanitizeErrorType(errStr)).Inc()
}

func ObserveWebhookProcessingDuration(duration time.Duration) {
	if metricsEnabled {
		webhookProcessingDurationSeconds.Observe(duration.Seconds())
	}
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if metricsEnabled {
		dbOperationDurationSeconds.WithLabelValues(operation, entity, statusLabel(err)).Observe(duration.Seconds())
	}
}

func ObserveWhatsAppSend(kind string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	whatsappSendsTotal.WithLabelValues(kind, statusLabel(err)).Inc()
	whatsappSendDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

func IncNotificationTasksSubmitted(kind string) {
	if metricsEnabled {
		notificationTasksSubmittedTotal.WithLabelValues(kind).Inc()
	}
}

func IncNotificationTasksProcessed(kind, status string) {
	if metricsEnabled {
		notificationTasksProcessedTotal.WithLabelValues(kind, status).Inc()
	}
}

func ObserveNotificationProcessingDuration(kind string, duration time.Duration) {
	if metricsEnabled {
		notificationProcessingDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
	}
}

func SetNotificationQueueLength(length int) {
	if metricsEnabled {
		notificationQueueLength.Set(float64(length))
	}
}

func IncDomainEventPublished(subject string, err error) {
	if metricsEnabled {
		domainEventsPublishedTotal.WithLabelValues(subject, statusLabel(err)).Inc()
	}
}

func IncLoadgenAttempted(scenario string) {
	if metricsEnabled {
		loadgenRequestsAttemptedTotal.WithLabelValues(scenario).Inc()
	}
}

func IncLoadgenFailed(scenario string) {
	if metricsEnabled {
		loadgenRequestsFailedTotal.WithLabelValues(scenario).Inc()
	}
}

// SanitizeErrorType buckets an error string into a small label set.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "database"), strings.Contains(lower, "sql"), strings.Contains(lower, "duplicate key"), strings.Contains(lower, "constraint"), strings.Contains(lower, "connection"):
		return "database"
	case strings.Contains(lower, "validation failed"), strings.Contains(lower, "bad request"), strings.Contains(lower, "invalid"):
		return "validation"
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no rows"):
		return "not_found"
	case strings.Contains(lower, "nats"), strings.Contains(lower, "jetstream"):
		return "nats"
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "unmarshal"), strings.Contains(lower, "json"):
		return "unmarshal"
	case strings.Contains(lower, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}
