// Package errors defines custom error types and error handling utilities for the vaultgate service.
// It provides structured errors that carry a stable error code and an HTTP status.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeInvalidRequest         Code = "invalid_request"
	CodeUnauthorized           Code = "unauthorized"
	CodeForbidden              Code = "forbidden"
	CodeNotFound               Code = "not_found"
	CodeAlreadyDecided         Code = "already_decided"
	CodeConflict               Code = "conflict"
	CodeRateLimitExceeded      Code = "rate_limit_exceeded"
	CodeServerError            Code = "server_error"
	CodeTemporarilyUnavailable Code = "temporarily_unavailable"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// APIError represents a structured error with additional metadata
type APIError interface {
	error

	// Code returns the error code
	Code() Code

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) APIError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) APIError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// baseError is the internal implementation of APIError
type baseError struct {
	code        Code
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

func (e *baseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) Code() Code                       { return e.code }
func (e *baseError) HTTPStatus() int                  { return e.httpStatus }
func (e *baseError) Description() string              { return e.description }
func (e *baseError) Unwrap() error                    { return e.cause }
func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// WithCause adds a cause error to the error chain
func (e *baseError) WithCause(cause error) APIError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *baseError) WithMetadata(key string, value interface{}) APIError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Is matches two APIErrors by code so errors.Is works against the sentinel constructors.
func (e *baseError) Is(target error) bool {
	t, ok := target.(*baseError)
	if !ok {
		return false
	}
	return t.code == e.code
}

// NewError creates a new APIError with the specified parameters
func NewError(code Code, httpStatus int, description string, message string) APIError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) APIError {
	return NewError(CodeInvalidRequest, http.StatusBadRequest,
		"The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed.",
		message)
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) APIError {
	return NewError(CodeUnauthorized, http.StatusUnauthorized,
		"Authentication is required to access this resource.",
		message)
}

// ErrNotFound creates a generic not_found error for a resource kind and id.
func ErrNotFound(resource, id string) APIError {
	return NewError(CodeNotFound, http.StatusNotFound,
		fmt.Sprintf("%s not found", resource),
		fmt.Sprintf("%s not found: %s", resource, id)).
		WithMetadata("resource", resource)
}

// ErrConflict creates a conflict error
func ErrConflict(message string) APIError {
	return NewError(CodeConflict, http.StatusConflict,
		"The request conflicts with the current state of the resource.",
		message)
}

// ErrServerError creates a server_error error
func ErrServerError(message string) APIError {
	return NewError(CodeServerError, http.StatusInternalServerError,
		"The server encountered an unexpected condition that prevented it from fulfilling the request.",
		message)
}

// ErrTemporarilyUnavailable creates a temporarily_unavailable error
func ErrTemporarilyUnavailable(message string) APIError {
	return NewError(CodeTemporarilyUnavailable, http.StatusServiceUnavailable,
		"The server is currently unable to handle the request due to a temporary overloading or maintenance.",
		message)
}

// ErrRateLimitExceeded creates a rate limit exceeded error
func ErrRateLimitExceeded(scope string, limit int) APIError {
	return NewError(CodeRateLimitExceeded, http.StatusTooManyRequests,
		"Rate limit exceeded. Please try again later.",
		fmt.Sprintf("Rate limit exceeded for scope '%s': %d requests", scope, limit)).
		WithMetadata("scope", scope).
		WithMetadata("limit", limit)
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrAuthRequestNotFound is returned for unknown, expired or foreign auth requests.
func ErrAuthRequestNotFound(key string) APIError {
	return NewError(CodeNotFound, http.StatusNotFound,
		"Auth request not found",
		fmt.Sprintf("auth request not found: %s", key))
}

// ErrAlreadyDecided is returned when a decision is submitted for a request that is no longer pending.
func ErrAlreadyDecided(requestID string) APIError {
	return NewError(CodeAlreadyDecided, http.StatusConflict,
		"Auth request has already been approved or declined",
		fmt.Sprintf("auth request %s has already been decided", requestID)).
		WithMetadata("request_id", requestID)
}

// ErrCipherNotFound creates a cipher not found error
func ErrCipherNotFound(cipherID string) APIError {
	return ErrNotFound("cipher", cipherID).WithMetadata("cipher_id", cipherID)
}

// ErrCipherOutOfDate is returned when an update carries a stale revision date.
func ErrCipherOutOfDate(cipherID string) APIError {
	return ErrConflict("The cipher you are updating is out of date. Please save your work, sync your vault, and try again.").
		WithMetadata("cipher_id", cipherID)
}

// ErrMissingRequiredParameter creates a missing required parameter error
func ErrMissingRequiredParameter(paramName string) APIError {
	return ErrInvalidRequest(fmt.Sprintf("Missing required parameter: %s", paramName)).
		WithMetadata("parameter", paramName)
}

// ================================================================================
// Error Utilities
// ================================================================================

// AsAPIError attempts to find an APIError in err's chain.
func AsAPIError(err error) (APIError, bool) {
	var apiErr APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// WrapError wraps a generic error into an APIError with the given code.
func WrapError(err error, code Code, message string) APIError {
	return NewError(code, statusForCode(code), message, message).WithCause(err)
}

func statusForCode(code Code) int {
	switch code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyDecided, CodeConflict:
		return http.StatusConflict
	case CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case CodeTemporarilyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HasCode reports whether err carries an APIError with the given code.
func HasCode(err error, code Code) bool {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code() == code
	}
	return false
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsAlreadyDecided checks if an error reports a second decision on the same request.
func IsAlreadyDecided(err error) bool {
	return HasCode(err, CodeAlreadyDecided)
}

// ShouldLogError determines if an error should be logged at error level.
func ShouldLogError(err error) bool {
	if apiErr, ok := AsAPIError(err); ok {
		status := apiErr.HTTPStatus()
		return status >= 500 || status == http.StatusTooManyRequests
	}
	return true
}
