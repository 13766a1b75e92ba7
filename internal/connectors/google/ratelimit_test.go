package google

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func fastLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(RateLimitConfig{
		RequestsPerSecond: 1000,
		BurstSize:         100,
		MaxRetries:        2,
		DefaultBackoff:    time.Millisecond,
	})
}

func TestNewRateLimiterWithConfig_Defaults(t *testing.T) {
	r := NewRateLimiterWithConfig(RateLimitConfig{})
	assert.Equal(t, DefaultRateLimit.RequestsPerSecond, r.cfg.RequestsPerSecond)
	assert.Equal(t, DefaultRateLimit.BurstSize, r.cfg.BurstSize)
	assert.Equal(t, DefaultRateLimit.DefaultBackoff, r.cfg.DefaultBackoff)
}

func TestRateLimiter_AllowAndBackoff(t *testing.T) {
	r := fastLimiter()
	assert.True(t, r.Allow())

	r.RecordRateLimitError(time.Hour)
	assert.False(t, r.Allow())
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	r := fastLimiter()
	r.RecordRateLimitError(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_DoRetriesRateLimited(t *testing.T) {
	r := fastLimiter()
	calls := 0

	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: http.StatusTooManyRequests}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_DoGivesUp(t *testing.T) {
	r := fastLimiter()
	calls := 0

	err := r.Do(context.Background(), func() error {
		calls++
		return &googleapi.Error{Code: http.StatusTooManyRequests}
	})

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, calls)
}

func TestRateLimiter_DoDoesNotRetryOtherErrors(t *testing.T) {
	r := fastLimiter()
	calls := 0
	boom := errors.New("boom")

	err := r.Do(context.Background(), func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
