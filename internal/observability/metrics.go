package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Thread save outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeFailed   = "failed"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ThreadSaves counts coordinator operations by operation and outcome.
	ThreadSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_thread_saves_total",
		Help: "Total number of thread create/update operations by outcome",
	}, []string{"operation", "outcome"})

	// GuardRejections counts saves aborted by a guard.
	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_thread_guard_rejections_total",
		Help: "Total number of thread saves rejected by a guard",
	}, []string{"guard"})

	// SideEffectFailures counts post-commit side effects that failed.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agora_thread_side_effect_failures_total",
		Help: "Total number of failed post-save side effects",
	}, []string{"effect"})

	// SlowQueries counts SQL statements slower than the GORM slow threshold.
	SlowQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agora_db_slow_queries_total",
		Help: "Total number of SQL statements over the slow query threshold",
	})

	// CacheRefreshLatency records how long a cache snapshot recomputation takes.
	CacheRefreshLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agora_thread_cache_refresh_seconds",
		Help:    "Thread cache refresh latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordSave increments the save counter for operation and outcome.
func RecordSave(operation, outcome string) {
	ThreadSaves.WithLabelValues(operation, outcome).Inc()
}

// TrackCacheRefresh returns a function that records refresh latency when called (e.g. defer).
func TrackCacheRefresh() func() {
	start := time.Now()
	return func() {
		CacheRefreshLatency.Observe(time.Since(start).Seconds())
	}
}
