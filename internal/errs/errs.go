package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure so callers can map it to the right exit
// behavior without string matching.
type Kind string

const (
	// KindValidation indicates a fetched payload failed normalization
	// checks (missing fields, out-of-range values). Not retryable: the
	// source layout has likely drifted and re-polling won't fix it.
	KindValidation Kind = "validation"
	// KindTransient indicates a network or parse anomaly while talking to
	// the exchange. Retryable, but only by the external scheduler's next
	// invocation; nothing in-process retries it.
	KindTransient Kind = "transient"
	// KindStore indicates the persistence layer failed.
	KindStore Kind = "store"
)

// Error is a structured error carrying its category and, where relevant,
// the underlying cause.
type Error struct {
	Kind      Kind
	Retryable bool
	Message   string
	Cause     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidation creates a validation error
func NewValidation(message string) *Error {
	return &Error{
		Kind:      KindValidation,
		Retryable: false,
		Message:   message,
	}
}

// NewTransient creates a transient fetch error
func NewTransient(message string, cause error) *Error {
	return &Error{
		Kind:      KindTransient,
		Retryable: true,
		Message:   message,
		Cause:     cause,
	}
}

// NewStore creates a persistence-layer error
func NewStore(message string, cause error) *Error {
	return &Error{
		Kind:      KindStore,
		Retryable: false,
		Message:   message,
		Cause:     cause,
	}
}

// IsKind reports whether err (or anything it wraps) is an Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsTransient reports whether err is a transient fetch error.
func IsTransient(err error) bool { return IsKind(err, KindTransient) }

// IsStore reports whether err is a persistence-layer error.
func IsStore(err error) bool { return IsKind(err, KindStore) }
