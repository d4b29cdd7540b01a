// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package metrics provides Prometheus instrumentation for the archival
// engine: batch throughput, record dispositions, merge outcomes, store
// operation latency, and API traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch processing metrics
	BatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trailkeeper_batches_total",
			Help: "Total number of audit record batches processed",
		},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trailkeeper_batch_duration_seconds",
			Help:    "End-to-end batch processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailkeeper_records_total",
			Help: "Audit records by disposition",
		},
		[]string{"disposition"}, // "filtered", "malformed", "applied", "duplicate"
	)

	// Merge engine metrics
	MergeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailkeeper_merge_attempts_total",
			Help: "Per-week merge attempts by result",
		},
		[]string{"result"}, // "applied", "noop", "conflict", "unavailable"
	)

	MergeConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trailkeeper_merge_conflict_retries_total",
			Help: "Version-conflict retries across all merges",
		},
	)

	WeeksNotAttempted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trailkeeper_weeks_not_attempted_total",
			Help: "Week merges skipped because the batch deadline was reached",
		},
	)

	// Archive store metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailkeeper_store_op_duration_seconds",
			Help:    "Archive store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailkeeper_store_op_errors_total",
			Help: "Archive store operation errors",
		},
		[]string{"operation"},
	)

	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trailkeeper_store_breaker_open",
			Help: "1 when the store circuit breaker is open, 0 otherwise",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trailkeeper_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trailkeeper_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveBatch records one completed batch.
func ObserveBatch(start time.Time) {
	BatchesTotal.Inc()
	BatchDuration.Observe(time.Since(start).Seconds())
}

// CountRecords adds n records under the given disposition.
func CountRecords(disposition string, n int) {
	if n > 0 {
		RecordsTotal.WithLabelValues(disposition).Add(float64(n))
	}
}

// RecordMergeAttempt records the outcome of one per-week merge.
func RecordMergeAttempt(result string) {
	MergeAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordConflictRetry records one version-conflict retry.
func RecordConflictRetry() {
	MergeConflictRetries.Inc()
}

// RecordWeekNotAttempted records one week skipped at the batch deadline.
func RecordWeekNotAttempted() {
	WeeksNotAttempted.Inc()
}

// ObserveStoreOp records latency and error status of one store operation.
func ObserveStoreOp(operation string, start time.Time, err error) {
	StoreOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(operation).Inc()
	}
}

// SetBreakerOpen publishes the store circuit breaker state.
func SetBreakerOpen(open bool) {
	if open {
		BreakerState.Set(1)
	} else {
		BreakerState.Set(0)
	}
}

// ObserveAPIRequest records one handled API request.
func ObserveAPIRequest(method, endpoint, status string, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
