package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

const (
	// ErrReviewerTimeout: a provider call exceeded its per-call timeout.
	// Recovered locally as an abstain opinion.
	ErrReviewerTimeout ErrorCode = "REVIEWER_TIMEOUT"

	// ErrInsufficientQuorum: too few reviewers responded in the initial
	// phase. Fatal; no decision is produced.
	ErrInsufficientQuorum ErrorCode = "INSUFFICIENT_QUORUM"

	// ErrMalformedOpinion: a provider returned a vote or score outside
	// the valid domain. Repaired and flagged; the session continues.
	ErrMalformedOpinion ErrorCode = "MALFORMED_OPINION"

	// ErrPersistenceFailure: a store operation failed. Retried with
	// backoff, never fatal to the decision.
	ErrPersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"

	// ErrConfiguration: invalid session setup (empty roster, negative
	// weights, bad thresholds). Fatal at session start.
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrInvalidTransition: an attempt to move the session phase
	// backwards or re-enter a completed phase.
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// ErrProviderFailure: a reasoning provider returned an error other
	// than a timeout.
	ErrProviderFailure ErrorCode = "PROVIDER_FAILURE"
)

// Error is a structured error with code, message, and optional cause.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" if it is
// not a *types.Error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err is a *types.Error carrying code.
func HasCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
