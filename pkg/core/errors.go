package core

import (
	"fmt"
)

// DriverError represents a structured error with category and details
type DriverError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, wait_timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (locator, predicate, timeout)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *DriverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DriverError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the same predefined error. Two DriverErrors
// match when their codes match, so a copy produced by WithDetails still
// satisfies errors.Is(err, ErrWaitTimeout).
func (e *DriverError) Is(target error) bool {
	t, ok := target.(*DriverError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *DriverError) WithCause(cause error) *DriverError {
	return &DriverError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *DriverError) WithMessage(msg string) *DriverError {
	return &DriverError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *DriverError) WithDetails(details map[string]interface{}) *DriverError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &DriverError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// WithLocator returns a copy of the error annotated with the locator that
// was being resolved.
func (e *DriverError) WithLocator(loc Locator) *DriverError {
	return e.WithDetails(map[string]interface{}{
		"locator": loc.String(),
	})
}

// Predefined errors (aligned with W3C WebDriver error codes where one exists)
var (
	// Assertion errors: the page did not contain what the caller expected.
	ErrElementNotFound = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrStaleElement = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "stale_element",
		Message:  "element is no longer attached to the DOM",
	}
	ErrNotClickable = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "not_clickable",
		Message:  "element is not clickable",
	}
	ErrRowNotFound = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "row_not_found",
		Message:  "no table row matched the requested value",
	}
	ErrSortColumnNotFound = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "sort_column_not_found",
		Message:  "no table header matched the requested column",
	}
	ErrValueNotFound = &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "value_not_found",
		Message:  "option value not present",
	}

	// Timeout errors
	ErrTimeout = &DriverError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "operation timed out",
	}
	ErrWaitTimeout = &DriverError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "wait condition timed out",
	}

	// Connection errors
	ErrServerUnreachable = &DriverError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to automation server",
	}
	ErrSessionClosed = &DriverError{
		Category: ErrCategoryConnection,
		Code:     "session_closed",
		Message:  "browser session is closed",
	}

	// Config errors
	ErrLocatorNotFound = &DriverError{
		Category: ErrCategoryConfig,
		Code:     "locator_not_found",
		Message:  "no locator registered under that name",
	}
	ErrInvalidConfig = &DriverError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &DriverError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
)

// NewDriverError creates a new DriverError with the given parameters
func NewDriverError(category ErrorCategory, code, message string) *DriverError {
	return &DriverError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
