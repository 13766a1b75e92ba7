package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a client-fixable configuration problem,
	// such as a missing service account file. Never retried automatically.
	ErrConfiguration = errors.New("configuration error")

	// ErrFolderRequired indicates an operation was invoked without a folder ID.
	ErrFolderRequired = errors.New("folder_id is required")

	// ErrNoFolderConfigured indicates no folder is currently being watched.
	ErrNoFolderConfigured = errors.New("no folder configured for ingestion")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidToken indicates a continuation token could not be used by the
	// source that issued it. A full snapshot is required.
	ErrInvalidToken = errors.New("invalid continuation token")
)

// IsClientError reports whether err should be surfaced to the caller as a
// request problem rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrFolderRequired) ||
		errors.Is(err, ErrNoFolderConfigured) ||
		errors.Is(err, ErrInvalidInput)
}
