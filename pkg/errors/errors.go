package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Every AppError wraps exactly one of these so callers can
// branch with errors.Is regardless of the message.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
	ErrAlreadyVerified    = errors.New("channel already verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrDispatchFailed     = errors.New("dispatch failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrDuplicateToken     = errors.New("duplicate token value")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// AlreadyVerified is returned when a verification is requested for a channel
// that has already been verified.
func AlreadyVerified(channel string) *AppError {
	return &AppError{
		Code:    "ALREADY_VERIFIED",
		Message: fmt.Sprintf("%s is already verified", channel),
		Status:  http.StatusBadRequest,
		Err:     ErrAlreadyVerified,
	}
}

// InvalidOrExpiredToken covers unknown, expired and already used tokens alike.
// The message never says which.
func InvalidOrExpiredToken() *AppError {
	return &AppError{
		Code:    "INVALID_TOKEN",
		Message: "the code is invalid or has expired",
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidToken,
	}
}

// PreconditionFailed names the outstanding requirement, e.g. "email must be verified".
func PreconditionFailed(message string) *AppError {
	return &AppError{
		Code:    "PRECONDITION_FAILED",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrPreconditionFailed,
	}
}

// DispatchFailed wraps an outbound email/SMS delivery failure.
func DispatchFailed(channel string, err error) *AppError {
	return &AppError{
		Code:    "DISPATCH_FAILED",
		Message: fmt.Sprintf("could not deliver the %s message, please try again", channel),
		Status:  http.StatusBadGateway,
		Err:     fmt.Errorf("%w: %w", ErrDispatchFailed, err),
	}
}

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError {
	return &AppError{
		Code:    "RATE_LIMITED",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     ErrRateLimited,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrAlreadyVerified), errors.Is(err, ErrPreconditionFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
