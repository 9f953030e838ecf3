package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Unauthenticated("who are you"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{RateLimited("slow down", 30), http.StatusTooManyRequests},
		{Upstream("email", errors.New("timeout")), http.StatusBadGateway},
		{Internal("oops"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode, tt.err.Code)
	}
}

func TestRateLimitedRetryAfter(t *testing.T) {
	err := RateLimited("please wait 30s", 30)
	assert.Equal(t, 30, err.RetryAfterSeconds)
	assert.Zero(t, Validation("x").RetryAfterSeconds)
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	inner := NotFound("product not found")
	wrapped := fmt.Errorf("loading product: %w", inner)
	assert.Equal(t, inner, From(wrapped))
}

func TestFromHidesUnknownErrors(t *testing.T) {
	got := From(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
	assert.Equal(t, "something went wrong", got.Message)
}
