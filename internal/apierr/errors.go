// Package apierr provides shared error sentinels and retry infrastructure
// for the hosted-model clients. Provider-specific failures (Replicate,
// OpenAI) are classified into these sentinels at the adapter boundary so
// the server can map them to HTTP statuses without knowing the provider.
//
// Providers wrap with fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for hosted-model API failures.
var (
	// ErrRateLimit indicates the API rate limit was exceeded (temporary).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota was exhausted (billing issue).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out or the service returned 5xx.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates the API credential was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) not otherwise classified.
	ErrBadRequest = errors.New("bad request")
)
