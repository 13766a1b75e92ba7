package google

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

// Common Google API errors. Credential and permission failures wrap
// domain.ErrConfiguration so callers can report them as client errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = fmt.Errorf("google: unauthorised (invalid credentials): %w", domain.ErrConfiguration)

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = fmt.Errorf("google: forbidden (insufficient permissions): %w", domain.ErrConfiguration)

	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = fmt.Errorf("google: resource not found: %w", domain.ErrNotFound)

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = fmt.Errorf("google: rate limit exceeded: %w", domain.ErrRateLimited)

	// ErrSyncTokenExpired indicates the page token is no longer valid (410 GONE).
	// The client should perform a full resync.
	ErrSyncTokenExpired = fmt.Errorf("google: page token expired, full resync required: %w", domain.ErrInvalidToken)
)

func apiError(err error) (*googleapi.Error, bool) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}

// IsUnauthorized returns true if the error indicates invalid credentials.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusUnauthorized
}

// IsForbidden returns true if the error indicates insufficient permissions.
func IsForbidden(err error) bool {
	if errors.Is(err, ErrForbidden) {
		return true
	}
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusForbidden && !isRateLimitReason(gerr)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
// Drive reports user rate limits as 403 with a rate-limit reason.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	gerr, ok := apiError(err)
	if !ok {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || isRateLimitReason(gerr)
}

// IsSyncTokenExpired returns true if the error indicates an expired page token (410 GONE).
func IsSyncTokenExpired(err error) bool {
	if errors.Is(err, ErrSyncTokenExpired) {
		return true
	}
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusGone
}

// RetryAfter returns the Retry-After header of a rate-limit response in
// seconds, or zero when absent.
func RetryAfter(err error) int {
	gerr, ok := apiError(err)
	if !ok || gerr.Header == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil || secs < 0 {
		return 0
	}
	return secs
}

func isRateLimitReason(gerr *googleapi.Error) bool {
	if gerr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}

// WrapError converts a Google API error to a more specific error type.
// The original *googleapi.Error stays in the chain.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	gerr, ok := apiError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch {
	case IsRateLimited(gerr):
		sentinel = ErrRateLimited
	case gerr.Code == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case gerr.Code == http.StatusForbidden:
		sentinel = ErrForbidden
	case gerr.Code == http.StatusNotFound:
		sentinel = ErrNotFound
	case gerr.Code == http.StatusGone:
		sentinel = ErrSyncTokenExpired
	default:
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, gerr)
}
