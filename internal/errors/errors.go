// FilePath: internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeDatabase            ErrorType = "database"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeUpstream            ErrorType = "upstream"
	ErrorTypeSampleCountMismatch ErrorType = "sample_count_mismatch"
	ErrorTypeInternal            ErrorType = "internal"
	ErrorTypeUnavailable         ErrorType = "service_unavailable"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error to errors.Is / errors.As.
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewUpstreamError wraps a failure of the device network or weather API.
func NewUpstreamError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstream,
		Message: msg,
		Code:    http.StatusBadGateway,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// SampleCountMismatchError reports a weather column whose length does not
// match the number of intervals in the requested window.
type SampleCountMismatchError struct {
	Variable string
	Expected int
	Got      int
}

func (e *SampleCountMismatchError) Error() string {
	return fmt.Sprintf("sample count mismatch for %s: expected %d, got %d", e.Variable, e.Expected, e.Got)
}

// NewSampleCountMismatchError creates the API form of a SampleCountMismatchError.
func NewSampleCountMismatchError(err *SampleCountMismatchError) *APIError {
	return &APIError{
		Type:    ErrorTypeSampleCountMismatch,
		Message: "weather samples do not cover the requested window",
		Code:    http.StatusUnprocessableEntity,
		Details: map[string]any{"variable": err.Variable, "expected": err.Expected, "got": err.Got},
		err:     err,
	}
}

// AsAPIError returns err as an *APIError, converting known domain errors and
// falling back to an internal error.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	var mismatch *SampleCountMismatchError
	if stderrors.As(err, &mismatch) {
		return NewSampleCountMismatchError(mismatch)
	}
	return NewInternalError("internal error", err)
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsUpstream checks if an error is an upstream API error
func IsUpstream(err error) bool {
	return hasType(err, ErrorTypeUpstream)
}

// IsSampleCountMismatch checks for a weather sample count mismatch anywhere in the chain.
func IsSampleCountMismatch(err error) bool {
	var mismatch *SampleCountMismatchError
	return stderrors.As(err, &mismatch)
}

func hasType(err error, t ErrorType) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}
