package event

import (
	"errors"
	"fmt"
	"time"
)

// ValidationCode categorizes validation failures.
type ValidationCode string

const (
	// CodeInvalidDate indicates Date is not a real calendar date in
	// YYYY-MM-DD form.
	CodeInvalidDate ValidationCode = "INVALID_DATE"

	// CodeInvalidCount indicates Count is not a positive integer.
	CodeInvalidCount ValidationCode = "INVALID_COUNT"

	// CodeInvalidType indicates Type is outside the closed enumeration.
	CodeInvalidType ValidationCode = "INVALID_TYPE"
)

// ValidationError describes why a record was rejected. Validation failures
// are never fatal to a batch operation: callers skip the record and count it.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks an event against the record rules. Stored events always
// have Count >= 1; a would-be record with Count == 0 is the caller's cue to
// persist nothing, and anything below that is rejected here.
func Validate(ev Event) error {
	if _, err := time.Parse(DateFormat, ev.Date); err != nil {
		return &ValidationError{
			Code:    CodeInvalidDate,
			Field:   "date",
			Message: fmt.Sprintf("date %q is not a valid YYYY-MM-DD calendar date", ev.Date),
		}
	}
	if ev.Count < 1 {
		return &ValidationError{
			Code:    CodeInvalidCount,
			Field:   "count",
			Message: fmt.Sprintf("count must be a positive integer, got %d", ev.Count),
		}
	}
	if !ValidTypes[ev.Type] {
		return &ValidationError{
			Code:    CodeInvalidType,
			Field:   "type",
			Message: fmt.Sprintf("unknown medicine type %q", ev.Type),
		}
	}
	return nil
}
