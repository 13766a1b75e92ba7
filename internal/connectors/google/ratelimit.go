package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kbsync/internal/logger"
)

// RateLimitConfig holds rate limiting configuration for Drive requests.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// MaxRetries bounds retries of rate-limited calls in Do.
	MaxRetries int
	// DefaultBackoff applies when a 429 carries no Retry-After.
	DefaultBackoff time.Duration
}

// DefaultRateLimit stays well below Drive's 10 requests/sec/user quota.
var DefaultRateLimit = RateLimitConfig{
	RequestsPerSecond: 8.0,
	BurstSize:         10,
	MaxRetries:        3,
	DefaultBackoff:    30 * time.Second,
}

// RateLimiter provides rate limiting for Google API requests.
// It uses a token bucket with a shared backoff window after 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	cfg     RateLimitConfig
}

// NewRateLimiter creates a rate limiter with the default Drive configuration.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
// Zero fields take the defaults.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.DefaultBackoff <= 0 {
		cfg.DefaultBackoff = DefaultRateLimit.DefaultBackoff
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		cfg:     cfg,
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff window after a 429 response.
// A non-positive retryAfter uses the configured default backoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = r.cfg.DefaultBackoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}

	return r.limiter.Allow()
}

// Do waits for a slot and runs call. Rate-limited failures record a backoff
// and are retried up to MaxRetries times; other errors return immediately.
// The returned error is mapped through WrapError.
func (r *RateLimiter) Do(ctx context.Context, call func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if waitErr := r.Wait(ctx); waitErr != nil {
			return waitErr
		}

		err = call()
		if err == nil || !IsRateLimited(err) || attempt >= r.cfg.MaxRetries {
			return WrapError(err)
		}

		backoff := time.Duration(RetryAfter(err)) * time.Second
		r.RecordRateLimitError(backoff)
		logger.Debug("drive: rate limited, retry %d/%d", attempt+1, r.cfg.MaxRetries)
	}
}
