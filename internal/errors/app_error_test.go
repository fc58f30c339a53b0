package errors_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		err := appErrors.DatabaseError("Failed to load order").WithError(sql.ErrNoRows)

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Equal(t, "Failed to load order", err.Error())
		assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	})

	t.Run("IsAppError through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("outer: %w", appErrors.NotFoundError("Order not found"))

		appErr, ok := appErrors.IsAppError(wrapped)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
		assert.True(t, appErrors.IsNotFound(wrapped))
	})

	t.Run("Plain errors have no code", func(t *testing.T) {
		assert.False(t, appErrors.HasCode(fmt.Errorf("boom"), appErrors.ErrCodeInternal))
	})
}

func TestStockErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       *appErrors.AppError
		code      string
		available int
	}{
		{name: "Out of stock", err: appErrors.OutOfStockError("p1"), code: appErrors.ErrCodeOutOfStock, available: 0},
		{name: "Insufficient stock", err: appErrors.InsufficientStockError("p1", 5), code: appErrors.ErrCodeInsufficientStock, available: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, http.StatusConflict, tc.err.StatusCode)

			available, ok := appErrors.Available(tc.err)
			require.True(t, ok)
			assert.Equal(t, tc.available, available)
		})
	}

	t.Run("Available decoded from JSON numbers", func(t *testing.T) {
		err := appErrors.NewAppError(appErrors.ErrCodeInsufficientStock, "x", http.StatusConflict).WithMeta(appErrors.MetaAvailable, float64(3))

		available, ok := appErrors.Available(err)
		require.True(t, ok)
		assert.Equal(t, 3, available)
	})
}

func TestPaymentValidationError(t *testing.T) {
	err := appErrors.PaymentValidationError("cvc", "must be exactly 3 digits")

	assert.Equal(t, appErrors.ErrCodePaymentValidation, err.Code)
	assert.Equal(t, "cvc", err.Meta[appErrors.MetaField])
	assert.Equal(t, "Invalid field 'cvc': must be exactly 3 digits", err.Message)
}
