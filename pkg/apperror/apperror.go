package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error carrying the HTTP status it maps to at the boundary.
// Services raise these close to the point of detection; handlers serialize them
// into the standard response envelope.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	// RetryAfterSeconds is set only for rate-limited errors.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(code, message string, statusCode int) *Error {
	return &Error{Code: code, Message: message, StatusCode: statusCode}
}

func Validation(message string) *Error {
	return New("validation_error", message, http.StatusBadRequest)
}

func Unauthenticated(message string) *Error {
	return New("unauthenticated", message, http.StatusUnauthorized)
}

func Forbidden(message string) *Error {
	return New("forbidden", message, http.StatusForbidden)
}

func NotFound(message string) *Error {
	return New("not_found", message, http.StatusNotFound)
}

func Conflict(message string) *Error {
	return New("conflict", message, http.StatusConflict)
}

// RateLimited reports how long the caller must wait before retrying.
func RateLimited(message string, retryAfterSeconds int) *Error {
	e := New("rate_limited", message, http.StatusTooManyRequests)
	e.RetryAfterSeconds = retryAfterSeconds
	return e
}

// Upstream wraps a dependent-service failure (email, object storage, ML scorer).
// The original error is kept in the message for logs, never a stack trace.
func Upstream(service string, err error) *Error {
	return New("upstream_failure", fmt.Sprintf("%s service unavailable: %v", service, err), http.StatusBadGateway)
}

func Internal(message string) *Error {
	return New("internal_error", message, http.StatusInternalServerError)
}

// From normalizes any error into an *Error; unrecognized errors become 500s
// with a generic message so internals never leak to the client.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("something went wrong")
}
