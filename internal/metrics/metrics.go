// Guidepost - Mentor/Mentee Matching Platform
// Copyright 2026 Guidepost Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/guidepost-dev/guidepost

// Package metrics provides Prometheus instrumentation for the match engine:
// scoring throughput, cache write outcomes, sweep progress, rarity index
// health, and API request latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring metrics
	PairsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_pairs_scored_total",
			Help: "Total number of subject/candidate pairs scored",
		},
		[]string{"algorithm"},
	)

	SubjectRecalcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_subject_recalc_duration_seconds",
			Help:    "Duration of a full per-subject recalculation in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"algorithm"},
	)

	// Cache write metrics
	ChunkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_cache_chunk_writes_total",
			Help: "Total number of cache chunk writes by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	CacheRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_rows_written_total",
			Help: "Total number of match cache rows persisted (zero scores excluded)",
		},
	)

	CacheRowsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_rows_pruned_total",
			Help: "Total number of stale match cache rows evicted after recalculation",
		},
	)

	// Sweep metrics
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_sweeps_total",
			Help: "Total number of population sweeps by outcome",
		},
		[]string{"outcome"}, // "complete", "partial", "cancelled"
	)

	SweepSubjects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_sweep_subjects_total",
			Help: "Subjects processed across all sweeps by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "skipped"
	)

	SweepRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_sweep_running",
			Help: "1 while a population sweep is in progress",
		},
	)

	// Rarity index metrics
	RarityReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rarity_index_reloads_total",
			Help: "Total number of rarity index rebuilds by source",
		},
		[]string{"source"}, // "usage_counts", "fallback"
	)

	RarityIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rarity_index_entries",
			Help: "Number of attribute values in the current rarity snapshot",
		},
	)

	// Circuit breaker metrics (usage-count source)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)
)

// ObserveDBQuery records a database query duration and, if err is non-nil,
// an error for the given operation/table pair.
func ObserveDBQuery(operation, table string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// ObserveAPIRequest records request count and latency for an endpoint.
func ObserveAPIRequest(method, endpoint string, status int, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
