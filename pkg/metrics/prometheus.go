package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// Grading metrics
	GradesTotal      *prometheus.CounterVec
	GradeLatency     *prometheus.HistogramVec
	ScoreHistogram   *prometheus.HistogramVec
	PenaltyHistogram *prometheus.HistogramVec

	// Judge metrics
	JudgeCallsTotal    *prometheus.CounterVec
	JudgeLatency       *prometheus.HistogramVec
	ParseFailuresTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Protection metrics
	RetriesTotal       *prometheus.CounterVec
	CircuitStateTotal  *prometheus.CounterVec
	RateLimitWaitTotal prometheus.Histogram
}

// NewPrometheusMetrics registers all metrics with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		GradesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_grades_total",
				Help: "Total number of grading calls",
			},
			[]string{"strategy", "status"},
		),

		GradeLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_grade_latency_seconds",
				Help:    "Grading call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),

		ScoreHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_score",
				Help:    "Distribution of final normalized scores",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"strategy"},
		),

		PenaltyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_length_penalty",
				Help:    "Distribution of applied length penalties",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"strategy"},
		),

		JudgeCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_judge_calls_total",
				Help: "Total number of judge invocations",
			},
			[]string{"strategy", "status"},
		),

		JudgeLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rubric_judge_latency_seconds",
				Help:    "Judge invocation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),

		ParseFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_parse_failures_total",
				Help: "Total number of judge responses that fell back to a conservative default",
			},
			[]string{"strategy"},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rubric_judge_cache_hits_total",
				Help: "Total number of judge cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rubric_judge_cache_misses_total",
				Help: "Total number of judge cache misses",
			},
		),

		RetriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_judge_retries_total",
				Help: "Total number of judge call retries",
			},
			[]string{"generator", "reason"},
		),

		CircuitStateTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rubric_judge_circuit_transitions_total",
				Help: "Total number of circuit breaker state transitions",
			},
			[]string{"generator", "state"},
		),

		RateLimitWaitTotal: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rubric_judge_rate_limit_wait_seconds",
				Help:    "Time spent waiting on the judge rate limiter",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordGrade records a completed grading call
func (m *PrometheusMetrics) RecordGrade(strategy, status string, duration time.Duration) {
	m.GradesTotal.WithLabelValues(strategy, status).Inc()
	m.GradeLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordScore records the final score and the applied length penalty
func (m *PrometheusMetrics) RecordScore(strategy string, score, penalty float64) {
	m.ScoreHistogram.WithLabelValues(strategy).Observe(score)
	m.PenaltyHistogram.WithLabelValues(strategy).Observe(penalty)
}

// RecordJudgeCall records a judge invocation
func (m *PrometheusMetrics) RecordJudgeCall(strategy, status string, duration time.Duration) {
	m.JudgeCallsTotal.WithLabelValues(strategy, status).Inc()
	m.JudgeLatency.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordParseFailures records n conservative fallbacks
func (m *PrometheusMetrics) RecordParseFailures(strategy string, n int) {
	if n > 0 {
		m.ParseFailuresTotal.WithLabelValues(strategy).Add(float64(n))
	}
}

// RecordCacheHit records a cache hit
func (m *PrometheusMetrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func (m *PrometheusMetrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// RecordRetry records a retry
func (m *PrometheusMetrics) RecordRetry(generator, reason string) {
	m.RetriesTotal.WithLabelValues(generator, reason).Inc()
}

// RecordCircuitState records a circuit breaker transition into state
func (m *PrometheusMetrics) RecordCircuitState(generator, state string) {
	m.CircuitStateTotal.WithLabelValues(generator, state).Inc()
}

// RecordRateLimitWait records time spent waiting on the rate limiter
func (m *PrometheusMetrics) RecordRateLimitWait(d time.Duration) {
	m.RateLimitWaitTotal.Observe(d.Seconds())
}
