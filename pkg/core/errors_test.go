package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDriverError_Error(t *testing.T) {
	err := &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestDriverError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &DriverError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestDriverError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &DriverError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestDriverError_WithCause(t *testing.T) {
	original := ErrElementNotFound
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestDriverError_WithMessage(t *testing.T) {
	original := ErrTimeout
	newErr := original.WithMessage("custom timeout message")

	if newErr.Message != "custom timeout message" {
		t.Errorf("Message = %q, want 'custom timeout message'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "custom timeout message" {
		t.Error("WithMessage() modified original error")
	}
}

func TestDriverError_WithDetails(t *testing.T) {
	original := &DriverError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"selector": "#button",
		"timeout":  5000,
	})

	if newErr.Details["selector"] != "#button" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["selector"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestDriverError_WithLocator(t *testing.T) {
	loc := Locator{Name: "add_button", Strategy: StrategyCSS, Selector: "#add"}
	err := ErrWaitTimeout.WithLocator(loc)

	got, ok := err.Details["locator"].(string)
	if !ok {
		t.Fatal("WithLocator() did not record the locator")
	}
	if !strings.Contains(got, "add_button") || !strings.Contains(got, "#add") {
		t.Errorf("locator detail = %q, should carry name and selector", got)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *DriverError
		category ErrorCategory
		code     string
	}{
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrStaleElement, ErrCategoryAssertion, "stale_element"},
		{ErrNotClickable, ErrCategoryAssertion, "not_clickable"},
		{ErrRowNotFound, ErrCategoryAssertion, "row_not_found"},
		{ErrSortColumnNotFound, ErrCategoryAssertion, "sort_column_not_found"},
		{ErrValueNotFound, ErrCategoryAssertion, "value_not_found"},
		{ErrTimeout, ErrCategoryTimeout, "timeout"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrSessionClosed, ErrCategoryConnection, "session_closed"},
		{ErrLocatorNotFound, ErrCategoryConfig, "locator_not_found"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrMissingRequired, ErrCategoryConfig, "missing_required"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewDriverError(t *testing.T) {
	err := NewDriverError(ErrCategoryConnection, "custom_error", "custom message")

	if err.Category != ErrCategoryConnection {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryConnection)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestDriverError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestDriverError_ErrorsIsAfterCopy(t *testing.T) {
	err := ErrWaitTimeout.WithDetails(map[string]interface{}{"predicate": "visible"})

	if !errors.Is(err, ErrWaitTimeout) {
		t.Error("errors.Is() should match the predefined error after WithDetails")
	}
	if errors.Is(err, ErrElementNotFound) {
		t.Error("errors.Is() matched the wrong predefined error")
	}
}

func TestDriverError_ErrorsIsThroughWrap(t *testing.T) {
	err := ErrRowNotFound.WithDetails(map[string]interface{}{"value": "Foo"})
	wrapped := fmt.Errorf("get row: %w", err)

	if !errors.Is(wrapped, ErrRowNotFound) {
		t.Error("errors.Is() should match through fmt wrapping")
	}
}
