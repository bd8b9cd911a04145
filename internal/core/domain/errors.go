package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProvidersExhausted indicates every configured model/provider
	// candidate failed across all cascade retries. This is the only
	// fatal error generation raises.
	ErrProvidersExhausted = errors.New("all generation providers failed")

	// ErrProviderUnavailable indicates a provider is not configured
	// (no credential) or reports itself unusable.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNotifyFailed indicates the evaluator notification could not be
	// delivered after exhausting all retry attempts.
	ErrNotifyFailed = errors.New("evaluation notification failed")

	// ErrPipelineClosed indicates the pipeline runner is shutting down
	// and no longer accepts new work.
	ErrPipelineClosed = errors.New("pipeline closed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
