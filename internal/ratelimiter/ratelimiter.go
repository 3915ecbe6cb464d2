// Package ratelimiter provides token bucket request throttling for the
// HTTP API.
//
// Tokens accumulate at a fixed rate and each request consumes one. The
// burst size is the bucket capacity, which bounds how far above the
// sustained rate a short spike can go.
package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the shelfd conventions:
// a rate of zero means unlimited, and burst defaults to the rate when
// left unset.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained with the
// given burst capacity.
//
// Special cases:
//   - requestsPerSecond = 0: no limiting (unlimited)
//   - burst = 0: burst defaults to requestsPerSecond
func New(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Allow reports whether a request may proceed, consuming one token when
// it does. It never blocks; use Wait to throttle instead of reject.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// AllowN reports whether n requests may proceed, consuming n tokens when
// they do. No tokens are consumed on rejection.
func (r *RateLimiter) AllowN(n int) bool {
	return r.limiter.AllowN(time.Now(), n)
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the number of tokens currently available. Useful for
// monitoring; the value can change immediately after the call.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
