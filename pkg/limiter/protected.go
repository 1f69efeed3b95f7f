package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/logging"
	"github.com/snow-ghost/rubric/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Options configures a ProtectedGenerator
type Options struct {
	Name              string
	RequestsPerMinute float64
	Burst             int
	Retry             *RetryConfig
	Breaker           *CircuitBreakerConfig
	Logger            *logging.Logger
	Metrics           *metrics.PrometheusMetrics
}

// ProtectedGenerator integrates rate limiting, retries, and a circuit breaker
// in front of a judge generator
type ProtectedGenerator struct {
	next    core.Generator
	name    string
	limiter *RateLimiter
	retry   *RetryManager
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	metrics *metrics.PrometheusMetrics
}

var _ core.Generator = (*ProtectedGenerator)(nil)

// NewProtectedGenerator wraps next with the configured protections
func NewProtectedGenerator(next core.Generator, opts Options) *ProtectedGenerator {
	if opts.Name == "" {
		opts.Name = "judge"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	g := &ProtectedGenerator{
		next:    next,
		name:    opts.Name,
		limiter: NewRateLimiter(opts.RequestsPerMinute, opts.Burst),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	g.retry = NewRetryManager(opts.Retry).OnRetry(func(attempt int, err error, delay time.Duration) {
		reason := "error"
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			reason = strconv.Itoa(httpErr.StatusCode)
		}
		g.logger.LogRetry(context.Background(), g.name, reason, attempt, delay)
		if g.metrics != nil {
			g.metrics.RecordRetry(g.name, reason)
		}
	})

	g.breaker = NewCircuitBreaker(opts.Name, opts.Breaker, func(name, from, to string) {
		g.logger.LogCircuitBreaker(name, from, to)
		if g.metrics != nil {
			g.metrics.RecordCircuitState(name, to)
		}
	})

	return g
}

// Generate executes the judge call with all protection mechanisms
func (g *ProtectedGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.breaker.State() == gobreaker.StateOpen {
		return "", fmt.Errorf("circuit breaker is open for %s: %w", g.name, gobreaker.ErrOpenState)
	}

	waited, err := g.limiter.Wait(ctx)
	if g.metrics != nil {
		g.metrics.RecordRateLimitWait(waited)
	}
	if err != nil {
		return "", fmt.Errorf("rate limiting failed: %w", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.retry.Execute(ctx, func(ctx context.Context) (string, error) {
			return g.next.Generate(ctx, systemPrompt, userPrompt)
		})
	})
	if err != nil {
		return "", fmt.Errorf("protected execution failed: %w", err)
	}

	return result.(string), nil
}

// State returns the circuit breaker state
func (g *ProtectedGenerator) State() gobreaker.State {
	return g.breaker.State()
}

// GetStats returns statistics for all protection mechanisms
func (g *ProtectedGenerator) GetStats() map[string]interface{} {
	counts := g.breaker.Counts()
	return map[string]interface{}{
		"name":         g.name,
		"rate_limiter": g.limiter.GetStats(),
		"circuit_breaker": map[string]interface{}{
			"state":                g.breaker.State().String(),
			"requests":             counts.Requests,
			"total_failures":       counts.TotalFailures,
			"consecutive_failures": counts.ConsecutiveFailures,
		},
		"retry_config": map[string]interface{}{
			"max_retries":      g.retry.config.MaxRetries,
			"base_delay":       g.retry.config.BaseDelay.String(),
			"max_delay":        g.retry.config.MaxDelay.String(),
			"backoff_factor":   g.retry.config.BackoffFactor,
			"retryable_errors": g.retry.config.RetryableErrors,
		},
	}
}
