package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
		message  string
	}{
		{"not found", NotFound("voucher", "v-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound, "voucher with id v-1 not found"},
		{"already exists", AlreadyExists("voucher", "code", "SAVE10"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists, `voucher with code "SAVE10" already exists`},
		{"invalid input", InvalidInput("quantity must be at least 1"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, "quantity must be at least 1"},
		{"unauthorized", Unauthorized("missing identity"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, "missing identity"},
		{"forbidden", Forbidden("nope"), "FORBIDDEN", http.StatusForbidden, ErrForbidden, "nope"},
		{"conflict", Conflict("session changed"), "CONFLICT", http.StatusConflict, ErrConflict, "session changed"},
		{"unprocessable", Unprocessable("CART_UNCHANGED", "cart unchanged"), "CART_UNCHANGED", http.StatusUnprocessableEntity, ErrUnprocessable, "cart unchanged"},
		{"unavailable", ServiceUnavailable("backend down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail, "backend down"},
		{"rate limited", TooManyRequests("slow down"), "RATE_LIMITED", http.StatusTooManyRequests, ErrRateLimited, "slow down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := Internal(cause)

	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "CART_FETCH_FAILED: could not load cart",
		New(http.StatusServiceUnavailable, "CART_FETCH_FAILED", "could not load cart", nil).Error())
	assert.Equal(t, "NOT_FOUND: item with id 3 not found: resource not found", NotFound("item", "3").Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrapped app error", fmt.Errorf("apply promo: %w", Conflict("x")), http.StatusConflict},
		{"bare sentinel", ErrUnauthorized, http.StatusUnauthorized},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"joined sentinel", errors.Join(errors.New("dial tcp"), ErrServiceUnavail), http.StatusServiceUnavailable},
		{"app error without status falls back to cause", New(0, "X", "y", ErrRateLimited), http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	seen := map[error]bool{}
	for _, s := range sentinelStatus {
		assert.False(t, seen[s.err], "duplicate sentinel %v", s.err)
		seen[s.err] = true
	}
	assert.Len(t, seen, 10)
}
