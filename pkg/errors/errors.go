package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeEngineUnavailable ErrorType = "engine_unavailable"
	ErrorTypeEngineTimeout     ErrorType = "engine_timeout"
	ErrorTypeEngineExit        ErrorType = "engine_exit"
	ErrorTypeEngineOutput      ErrorType = "engine_output"
	ErrorTypeInternal          ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Details:    detail,
		StatusCode: http.StatusBadRequest,
	}
}

// NewEngineUnavailableError is returned when the worker process could not be started.
func NewEngineUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewEngineTimeoutError is returned when the worker exceeded its deadline and was killed.
func NewEngineTimeoutError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
	}
}

// NewEngineExitError carries the worker's exit code and captured stderr.
func NewEngineExitError(exitCode int, stderr string) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineExit,
		Message:    fmt.Sprintf("engine exited with code %d", exitCode),
		Details:    stderr,
		StatusCode: http.StatusBadGateway,
	}
}

// NewEngineOutputError is returned when the worker's stdout is not a valid document.
func NewEngineOutputError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeEngineOutput,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error chain contains an AppError of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsEngineError reports whether err is one of the engine failure kinds. Those are
// recovered into response bodies rather than surfaced as HTTP errors.
func IsEngineError(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Type {
	case ErrorTypeEngineUnavailable, ErrorTypeEngineTimeout, ErrorTypeEngineExit, ErrorTypeEngineOutput:
		return true
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
