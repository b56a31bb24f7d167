package usecase

import "errors"

// Generic failure kinds shared across services. Domain-specific guard
// failures (capacity, duplicate registration, claim races) live with their
// domain packages and are mapped alongside these at the HTTP surface.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrRateLimited           = errors.New("too many requests")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
