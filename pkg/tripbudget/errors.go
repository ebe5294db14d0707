package tripbudget

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBucket is returned when an edit names a bucket that does not exist
	ErrUnknownBucket = errors.New("unknown bucket")

	// ErrNegativeAmount is returned when a negative amount is supplied
	ErrNegativeAmount = errors.New("negative amount")

	// ErrZeroTotalBudget is returned for percent-mode edits against a zero total
	ErrZeroTotalBudget = errors.New("total budget is zero")

	// ErrUnknownDomain is returned when an edit names an unconfigured autosave domain
	ErrUnknownDomain = errors.New("unknown autosave domain")

	// ErrFlushInFlight is returned when a manual flush is requested mid-flush
	ErrFlushInFlight = errors.New("flush already in flight")

	// ErrRateFetch is returned when the rate provider could not be reached
	ErrRateFetch = errors.New("rate fetch failed")

	// ErrPersistence is returned when a domain flush fails
	ErrPersistence = errors.New("persistence failed")
)

// Error represents an engine error
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}

	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// ValidationError represents a rejected input; the caller's state is unchanged
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewError creates a new engine error
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidation checks if error is a validation rejection
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
