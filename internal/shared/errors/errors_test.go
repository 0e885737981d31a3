package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation_ListsMissingFields(t *testing.T) {
	err := Validation("", "orderId", "email")

	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "missing required fields: orderId, email", err.Message)
	assert.Equal(t, map[string]any{"missing": []string{"orderId", "email"}}, err.Details)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProvider_StatusPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected int
	}{
		{"client error passes through", http.StatusBadRequest, http.StatusBadRequest},
		{"server error passes through", http.StatusBadGateway, http.StatusBadGateway},
		{"no status maps to 500", 0, http.StatusInternalServerError},
		{"2xx with bad body maps to 500", http.StatusOK, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Provider("xendit", tt.status, "boom", nil)
			assert.Equal(t, tt.expected, err.StatusCode)
			assert.Equal(t, CodeProvider, err.Code)
			assert.ErrorIs(t, err, ErrProvider)
		})
	}
}

func TestProvider_WrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Provider("nowpayments", 0, "request failed", cause)

	assert.ErrorIs(t, err, ErrProvider)
	assert.ErrorIs(t, err, cause)
}

func TestTimeout(t *testing.T) {
	err := Timeout("xendit", context.DeadlineExceeded)

	assert.Equal(t, http.StatusGatewayTimeout, err.StatusCode)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"app error", Configuration("missing key"), http.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("wrap: %w", Authentication("")), http.StatusUnauthorized},
		{"integrity", Integrity("mismatch", "price_amount"), http.StatusBadRequest},
		{"sentinel not found", fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetStatusCode(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("verify: %w", Integrity("mismatch"))
	assert.True(t, HasCode(err, CodeIntegrity))
	assert.False(t, HasCode(err, CodeProvider))
	assert.False(t, HasCode(errors.New("plain"), CodeIntegrity))
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	base := Conflict("order already paid")
	withDetails := base.WithDetails(map[string]string{"order_id": "abc"})

	require.NotNil(t, withDetails.Details)
	assert.Nil(t, base.Details)
}
