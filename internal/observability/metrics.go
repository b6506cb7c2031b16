// Package observability holds the Prometheus collectors and the OpenTelemetry tracer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Like toggle outcomes.
const (
	OutcomeLiked    = "liked"
	OutcomeUnliked  = "unliked"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeFailure  = "failure"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "community_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LikeToggles counts finished like toggles by outcome.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_like_toggles_total",
		Help: "Total number of like toggles by outcome",
	}, []string{"outcome"})

	// LikeToggleDuration records end-to-end toggle latency including retries.
	LikeToggleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "community_like_toggle_duration_seconds",
		Help:    "Like toggle latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})

	// LikeToggleRetries counts transaction retries after a persistence conflict.
	LikeToggleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_like_toggle_retries_total",
		Help: "Total number of like toggle retries after a persistence conflict",
	})

	// StatsCorrections counts board_stats rows repaired by the reconciler.
	StatsCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_stats_corrections_total",
		Help: "Total number of board stats rows corrected by reconciliation",
	})

	// StatsReconcileRuns counts reconciler runs by result.
	StatsReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_stats_reconcile_runs_total",
		Help: "Total number of stats reconciliation runs by result",
	}, []string{"result"})

	// LiveSubscribers is the number of open live board websocket connections.
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "community_live_subscribers",
		Help: "Number of open live board websocket connections",
	})

	// LiveEvents counts events fanned out to live subscribers by type.
	LiveEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_live_events_total",
		Help: "Total live board events delivered by type",
	}, []string{"event_type"})

	// LiveBackpressureDrops counts events dropped because a subscriber buffer was full.
	LiveBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_live_backpressure_drops_total",
		Help: "Total number of live events dropped because a subscriber buffer was full",
	})
)

// ObserveQuery records the latency of a database statement.
func ObserveQuery(operation, table string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

// RecordLikeToggle records the outcome and latency of a toggle started at start.
func RecordLikeToggle(outcome string, start time.Time) {
	LikeToggles.WithLabelValues(outcome).Inc()
	LikeToggleDuration.Observe(time.Since(start).Seconds())
}
