package limiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces judge calls to a requests-per-minute budget
type RateLimiter struct {
	limiter *rate.Limiter
	rpm     float64
}

// NewRateLimiter creates a limiter allowing rpm requests per minute with the given burst.
// A non-positive rpm disables limiting.
func NewRateLimiter(rpm float64, burst int) *RateLimiter {
	if rpm <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		// Burst = 1/10 of limit
		burst = int(rpm / 10.0)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rpm/60.0), burst),
		rpm:     rpm,
	}
}

// Wait blocks until a call is allowed and returns how long it waited
func (rl *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := rl.limiter.Wait(ctx); err != nil {
		return time.Since(start), fmt.Errorf("rate limiter wait failed: %w", err)
	}
	return time.Since(start), nil
}

// Allow checks if the request is allowed without waiting
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"limit":   float64(rl.limiter.Limit()),
		"burst":   rl.limiter.Burst(),
		"tokens":  rl.limiter.Tokens(),
		"max_rpm": rl.rpm,
	}
}
