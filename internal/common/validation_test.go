package common

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("user_id", "not-a-uuid", Required, UUID).
		Field("vendor", "ab", Required, MaxLength(1)).
		Field("currency", "INR", CurrencyCode).
		Field("amount", -1.0, NonNegativeAmount)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)

	err := ValidateAndReturnError(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "user_id")
	assert.Contains(t, err.Error(), "vendor")
}

func TestNonNegativeAmount(t *testing.T) {
	assert.Nil(t, NonNegativeAmount("amount", 0.0))
	assert.Nil(t, NonNegativeAmount("amount", 350.5))
	assert.NotNil(t, NonNegativeAmount("amount", math.NaN()))
	assert.NotNil(t, NonNegativeAmount("amount", "12"))
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().Field("currency", "USD", Required, CurrencyCode)
	assert.False(t, v.HasErrors())
	assert.NoError(t, ValidateAndReturnError(v))
}

func TestCurrencyCode(t *testing.T) {
	for _, code := range []string{"INR", "USD", "EUR"} {
		assert.Nil(t, CurrencyCode("currency", code), code)
	}
	for _, code := range []string{"", "inr", "RUPEE", "IN1", " INR"} {
		assert.NotNil(t, CurrencyCode("currency", code), code)
	}
	assert.NotNil(t, CurrencyCode("currency", 3))
}

func TestUUID(t *testing.T) {
	id := "7d1c1f8e-4a7b-4a51-9c1e-2a0f0b6a9d11"
	assert.Nil(t, UUID("user_id", id))
	assert.Nil(t, UUID("user_id", &id))
	assert.NotNil(t, UUID("user_id", "user-1"))
	assert.NotNil(t, UUID("user_id", 42))
}
