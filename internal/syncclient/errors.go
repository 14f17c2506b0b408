package syncclient

import (
	"errors"
	"fmt"
)

// Kind categorizes a sync transport failure.
type Kind string

const (
	// KindAuthExpired means the bearer token was rejected; the caller must
	// re-authenticate before retrying anything.
	KindAuthExpired Kind = "AUTH_EXPIRED"

	// KindTransient is a network-level or server-side failure; the caller
	// may retry the whole pass later.
	KindTransient Kind = "TRANSIENT"

	// KindRejected means the remote refused the record as invalid; a retry
	// with the same payload cannot succeed.
	KindRejected Kind = "REJECTED"
)

// Error is a sync transport failure with its kind and originating operation.
type Error struct {
	Kind    Kind
	Op      string // "push", "list", "generate-code", ...
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuthExpired reports whether err is an AuthExpired sync failure.
// Uses errors.As to handle wrapped errors.
func IsAuthExpired(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == KindAuthExpired
	}
	return false
}

// IsTransient reports whether err is a retryable sync failure.
func IsTransient(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == KindTransient
	}
	return false
}

// IsRejected reports whether err is a non-retryable validation rejection.
func IsRejected(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == KindRejected
	}
	return false
}
