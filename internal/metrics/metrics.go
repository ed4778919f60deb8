// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Jamf API metrics
	JamfRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamf_api_requests_total",
			Help: "Total number of requests sent to the Jamf API",
		},
		[]string{"endpoint", "status"},
	)

	JamfRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamf_api_request_duration_seconds",
			Help:    "Duration of Jamf API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	JamfRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamf_api_rate_limited_total",
			Help: "Total number of Jamf responses classified as rate limiting",
		},
	)

	JamfTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamf_api_token_refreshes_total",
			Help: "Total number of Jamf bearer token refreshes",
		},
		[]string{"result"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Sync engine metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_sync_runs_total",
			Help: "Total number of device sync runs by result",
		},
		[]string{"category", "result"}, // ok, failed
	)

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamfsync_sync_run_duration_seconds",
			Help:    "Duration of a single device sync run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	SyncTaskOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_sync_task_outcomes_total",
			Help: "Sync task outcomes by task and outcome",
		},
		[]string{"category", "task", "outcome"},
	)

	SyncBatchLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jamfsync_sync_batch_last_run_timestamp_seconds",
			Help: "Unix time of the last completed sync-due batch",
		},
		[]string{"category"},
	)

	DiscoveryDevicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_discovery_devices_total",
			Help: "Devices seen by discovery by action taken",
		},
		[]string{"category", "action"}, // linked, pending, queued, imported, failed
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_import_total",
			Help: "Import attempts by result",
		},
		[]string{"category", "result"}, // imported, dropped, duplicate, failed
	)

	ExtensionAttributeDefinitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_extension_attribute_definitions_synced_total",
			Help: "Extension attribute definitions upserted from Jamf",
		},
		[]string{"category"},
	)

	CommandsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_commands_sent_total",
			Help: "MDM commands sent to Jamf by result",
		},
		[]string{"category", "command", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_events_published_total",
			Help: "Device lifecycle events published to NATS by type and result",
		},
		[]string{"type", "result"}, // ok, failed
	)

	// Backup metrics
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_backups_total",
			Help: "Backups of the local store by trigger and result",
		},
		[]string{"trigger", "result"}, // ok, failed
	)

	BackupLastSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jamfsync_backup_last_size_bytes",
			Help: "Size of the most recent successful backup archive",
		},
	)

	// API authentication and authorization metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_auth_attempts_total",
			Help: "API authentication attempts by method and result",
		},
		[]string{"method", "result"}, // ok, missing, invalid, expired
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_authz_decisions_total",
			Help: "Authorization decisions by action, result and cache use",
		},
		[]string{"action", "result", "cached"},
	)

	// Trigger API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_api_requests_total",
			Help: "Total number of trigger API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamfsync_api_request_duration_seconds",
			Help:    "Duration of trigger API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jamfsync_api_requests_in_flight",
			Help: "Trigger API requests currently being served",
		},
	)

	// Local store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamfsync_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamfsync_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)
)

// RecordJamfRequest records one outbound Jamf API call.
func RecordJamfRequest(endpoint string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	JamfRequestsTotal.WithLabelValues(endpoint, status).Inc()
	JamfRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordSyncRun records the result of one device sync run.
func RecordSyncRun(category string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	SyncRunsTotal.WithLabelValues(category, result).Inc()
	SyncRunDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordTaskOutcome records the final outcome of one sync task.
func RecordTaskOutcome(category, task, outcome string) {
	SyncTaskOutcomes.WithLabelValues(category, task, outcome).Inc()
}

// RecordEventPublish records one device event publish attempt.
func RecordEventPublish(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	EventsPublished.WithLabelValues(eventType, result).Inc()
}

// RecordBackup records one backup attempt.
func RecordBackup(trigger string, size int64, err error) {
	if err != nil {
		BackupsTotal.WithLabelValues(trigger, "failed").Inc()
		return
	}
	BackupsTotal.WithLabelValues(trigger, "ok").Inc()
	BackupLastSize.Set(float64(size))
}

// RecordAuthAttempt records one API authentication attempt.
func RecordAuthAttempt(method, result string) {
	AuthAttempts.WithLabelValues(method, result).Inc()
}

// RecordAuthzDecision records one authorization decision.
func RecordAuthzDecision(action string, allowed, cached bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	AuthzDecisions.WithLabelValues(action, result, strconv.FormatBool(cached)).Inc()
}

// RecordAPIRequest records one served trigger API request. route is the
// matched route pattern, not the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records a local store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
