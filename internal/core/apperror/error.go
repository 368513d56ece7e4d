// Package apperror provides structured error handling for the platform.
// Business and infrastructure failures that callers must branch on use AppError.
package apperror

import (
	"errors"
	"fmt"
)

// Error codes
const (
	// Infrastructure errors
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Numbering errors
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeNotInitialized   = "NOT_INITIALIZED"

	// Lookup / uniqueness
	CodeNotFound  = "NOT_FOUND"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (class, year, field errors...)
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error.
func NewValidation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewInvalidInput creates an invalid argument error.
func NewInvalidInput(message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Message: message}
}

// NewNotFound creates a not found error.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewDuplicate creates a duplicate entry error.
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:    CodeDuplicate,
		Message: fmt.Sprintf("%s with this %s already exists", entity, field),
		Details: map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewCapacityExceeded reports that a yearly sequence space is used up.
func NewCapacityExceeded(class string, year int, limit int64) *AppError {
	return &AppError{
		Code:    CodeCapacityExceeded,
		Message: fmt.Sprintf("%s numbers for %d are exhausted", class, year),
		Details: map[string]any{"class": class, "year": year, "limit": limit},
	}
}

// NewNotInitialized reports use of a component before its startup step ran.
func NewNotInitialized(component string) *AppError {
	return &AppError{
		Code:    CodeNotInitialized,
		Message: fmt.Sprintf("%s is not initialized", component),
	}
}

// NewDatabase wraps a storage failure.
func NewDatabase(op string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabase,
		Message: op + " failed",
		Err:     err,
	}
}

// NewInternal creates an internal error.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal error",
		Err:     err,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsCapacityExceeded checks if error is CodeCapacityExceeded
func IsCapacityExceeded(err error) bool {
	return HasCode(err, CodeCapacityExceeded)
}
