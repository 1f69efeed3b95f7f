package limiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// RetryConfig controls how transient judge failures are retried.
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	BaseDelay       time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay        time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor" yaml:"backoff_factor"`
	Jitter          bool          `json:"jitter" yaml:"jitter"`
	RetryableErrors []int         `json:"retryable_errors" yaml:"retryable_errors"`
}

// DefaultRetryConfig retries rate limits and upstream 5xx three times.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:      3,
		BaseDelay:       100 * time.Millisecond,
		MaxDelay:        30 * time.Second,
		BackoffFactor:   2.0,
		Jitter:          true,
		RetryableErrors: []int{429, 500, 502, 503, 504},
	}
}

// RetryableFunc is a single judge round trip.
type RetryableFunc func(ctx context.Context) (string, error)

// RetryHook observes a failed attempt (1-based) and the pause before the next one.
type RetryHook func(attempt int, err error, delay time.Duration)

type RetryManager struct {
	config  *RetryConfig
	onRetry RetryHook
}

func NewRetryManager(config *RetryConfig) *RetryManager {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryManager{config: config}
}

// OnRetry sets the hook and returns rm for chaining.
func (rm *RetryManager) OnRetry(hook RetryHook) *RetryManager {
	rm.onRetry = hook
	return rm
}

// Execute calls fn until it succeeds, fails permanently, or the retry
// budget runs out. Context errors are returned unwrapped.
func (rm *RetryManager) Execute(ctx context.Context, fn RetryableFunc) (string, error) {
	for attempt := 0; ; attempt++ {
		reply, err := fn(ctx)
		if err == nil {
			return reply, nil
		}
		if !rm.shouldRetry(err) {
			return "", err
		}
		if attempt >= rm.config.MaxRetries {
			return "", fmt.Errorf("max retries exceeded: %w", err)
		}

		pause := rm.pause(attempt, err)
		if rm.onRetry != nil {
			rm.onRetry(attempt+1, err, pause)
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (rm *RetryManager) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return slices.Contains(rm.config.RetryableErrors, httpErr.StatusCode)
}

// pause is the exponential backoff for attempt, raised to any Retry-After
// the provider sent and capped at MaxDelay.
func (rm *RetryManager) pause(attempt int, err error) time.Duration {
	backoff := float64(rm.config.BaseDelay) * math.Pow(rm.config.BackoffFactor, float64(attempt))
	if rm.config.Jitter {
		backoff *= 0.75 + rand.Float64()*0.5
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && float64(httpErr.RetryAfter) > backoff {
		backoff = float64(httpErr.RetryAfter)
	}

	if limit := rm.config.MaxDelay; limit > 0 && backoff > float64(limit) {
		return limit
	}
	return time.Duration(backoff)
}

// HTTPError is a non-2xx provider reply.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
	// RetryAfter is the provider's requested wait, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func NewHTTPError(statusCode int, message, body string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message, Body: body}
}

// WithRetryAfter records a Retry-After header value on e. Both the
// delay-seconds and HTTP-date forms are accepted; anything else is ignored.
func (e *HTTPError) WithRetryAfter(header string) *HTTPError {
	header = strings.TrimSpace(header)
	if header == "" {
		return e
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		e.RetryAfter = time.Duration(secs) * time.Second
		return e
	}
	if at, err := http.ParseTime(header); err == nil {
		if wait := time.Until(at); wait > 0 {
			e.RetryAfter = wait
		}
	}
	return e
}

// IsRetryableHTTPError reports whether statusCode is in the default retry set.
func IsRetryableHTTPError(statusCode int) bool {
	return slices.Contains(DefaultRetryConfig().RetryableErrors, statusCode)
}
