package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCacheMiss signals an absent, expired, or stale recommendation cache entry.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStoreUnavailable signals that the backing stores needed to build a
	// recommendation list could not be reached. Retryable.
	ErrStoreUnavailable = errors.New("store unavailable")
)
