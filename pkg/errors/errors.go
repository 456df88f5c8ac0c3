package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels classify failures independently of the message. AppErrors wrap
// one of them so callers can test with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrUnprocessable  = errors.New("unprocessable")
	ErrRateLimited    = errors.New("rate limited")
)

// sentinelStatus is consulted in order, so more specific entries come first.
var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrUnprocessable, http.StatusUnprocessableEntity},
	{ErrRateLimited, http.StatusTooManyRequests},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
	{ErrInternal, http.StatusInternalServerError},
}

// AppError is an error that knows its HTTP status and public code.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// New builds an AppError. cause may be a sentinel, a lower-level error or nil.
func New(status int, code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return New(http.StatusNotFound, "NOT_FOUND",
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// AlreadyExists reports a uniqueness violation on field.
func AlreadyExists(resource, field, value string) *AppError {
	return New(http.StatusConflict, "ALREADY_EXISTS",
		fmt.Sprintf("%s with %s %q already exists", resource, field, value), ErrAlreadyExists)
}

func InvalidInput(message string) *AppError {
	return New(http.StatusBadRequest, "INVALID_INPUT", message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, "UNAUTHORIZED", message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, "FORBIDDEN", message, ErrForbidden)
}

// Conflict reports a lost concurrent-modification race.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

// Unprocessable reports a well-formed request rejected by business rules,
// under a caller-chosen code.
func Unprocessable(code, message string) *AppError {
	return New(http.StatusUnprocessableEntity, code, message, ErrUnprocessable)
}

func ServiceUnavailable(message string) *AppError {
	return New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, ErrServiceUnavail)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, "RATE_LIMITED", message, ErrRateLimited)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred",
		errors.Join(ErrInternal, err))
}

// HTTPStatus resolves the status for err: an AppError's own status, else the
// first matching sentinel, else 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
