package inference

import "fmt"

// ErrorKind classifies an inference failure. The kind drives both the retry
// decision and the circuit breaker.
type ErrorKind string

const (
	// KindNetwork is a connection-level failure (refused, reset, DNS).
	KindNetwork ErrorKind = "network"

	// KindTimeout is a request that exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindRateLimit is an HTTP 429 from the backend.
	KindRateLimit ErrorKind = "rate_limit"

	// KindAuthentication is an HTTP 401/403 from the backend.
	KindAuthentication ErrorKind = "authentication"

	// KindInvalidRequest is a request the backend rejected as malformed
	// (HTTP 400/404/422).
	KindInvalidRequest ErrorKind = "invalid_request"

	// KindServerError is an HTTP 5xx from the backend.
	KindServerError ErrorKind = "server_error"

	// KindUnknown is any failure that fits no other kind.
	KindUnknown ErrorKind = "unknown"
)

// Kinds lists every error kind, in a stable order, for stats initialization.
func Kinds() []ErrorKind {
	return []ErrorKind{
		KindNetwork,
		KindTimeout,
		KindRateLimit,
		KindAuthentication,
		KindInvalidRequest,
		KindServerError,
		KindUnknown,
	}
}

// Retryable reports whether a failure of this kind may be retried.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindRateLimit:
		return true
	}
	return false
}

// CountsTowardBreaker reports whether a failure of this kind increments the
// circuit breaker's failure count. Authentication and invalid-request
// failures indicate a caller problem, not backend health, and are excluded.
func (k ErrorKind) CountsTowardBreaker() bool {
	switch k {
	case KindAuthentication, KindInvalidRequest:
		return false
	}
	return true
}

// InferenceError is a classified failure from the inference backend.
type InferenceError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message describes the failure.
	Message string

	// Details carries failure context (status code, backend body, ...).
	Details map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s error: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// CircuitOpenError is returned when the circuit breaker rejects a call
// without contacting the backend.
type CircuitOpenError struct {
	// Failures is the breaker's failure count at rejection time.
	Failures int
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("inference circuit open after %d failures", e.Failures)
}

// asInferenceError normalizes any error into an *InferenceError, wrapping
// unclassified errors as KindUnknown.
func asInferenceError(err error) *InferenceError {
	if ierr, ok := err.(*InferenceError); ok {
		return ierr
	}
	return &InferenceError{
		Kind:    KindUnknown,
		Message: err.Error(),
		Cause:   err,
	}
}
