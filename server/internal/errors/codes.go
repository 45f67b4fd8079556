package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type returned by the API.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNoTimeFound indicates a line without any recognizable time.
	ErrCodeNoTimeFound ErrorCode = "NO_TIME_FOUND"
	// ErrCodeNotFound indicates the requested record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

var httpStatus = map[ErrorCode]int{
	ErrCodeInvalidArgument:   http.StatusBadRequest,
	ErrCodeNoTimeFound:       http.StatusUnprocessableEntity,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeRateLimitExceeded: http.StatusTooManyRequests,
	ErrCodeContextCanceled:   499,
	ErrCodeInternal:          http.StatusInternalServerError,
}

// APIError represents a structured error returned to API clients.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code of the error code.
func (e *APIError) HTTPStatus() int {
	if status, ok := httpStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *APIError {
	return &APIError{Code: ErrCodeInvalidArgument, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *APIError {
	return &APIError{Code: ErrCodeNotFound, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an APIError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return defaultCode
}
