package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBackendError   = errors.New("backend error")
	ErrUnreachable    = errors.New("backend unreachable")
)

// APIError represents a structured error surfaced to the user.
// Backend-reported failures carry the backend's message verbatim;
// connectivity failures carry a generic reachability message.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input caught
// before any network call.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewBackendError creates an error carrying the backend's own message.
// The message is surfaced to the user verbatim per the error contract.
func NewBackendError(statusCode int, message string) *APIError {
	return &APIError{
		Code:       "BACKEND_ERROR",
		Message:    message,
		StatusCode: statusCode,
		Err:        ErrBackendError,
	}
}

// NewUnreachableError creates an error for connectivity failures where
// no structured backend response exists.
func NewUnreachableError(err error) *APIError {
	return &APIError{
		Code:       "BACKEND_UNREACHABLE",
		Message:    "Check that the backend is running, reachable and returns valid JSON.",
		StatusCode: 0,
		Err:        fmt.Errorf("%w: %v", ErrUnreachable, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}
