// internal/utils/validator_test.go
package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutPayload struct {
	PaymentMethod string `validate:"required,payment_method"`
	Password      string `validate:"omitempty,strong_password"`
	Username      string `validate:"omitempty,username"`
}

func TestPaymentMethodValidation(t *testing.T) {
	for _, method := range []string{"transfer_bank", "transfer_va", "cod", "TRANSFER_BANK"} {
		err := ValidateStruct(checkoutPayload{PaymentMethod: method})
		assert.NoError(t, err, "method %q should be accepted", method)
	}

	for _, method := range []string{"pulsa", "credit_card", ""} {
		err := ValidateStruct(checkoutPayload{PaymentMethod: method})
		assert.Error(t, err, "method %q should be rejected", method)
	}
}

func TestStrongPasswordValidation(t *testing.T) {
	valid := checkoutPayload{PaymentMethod: "cod", Password: "RahasiaKu123"}
	assert.NoError(t, ValidateStruct(valid))

	for _, password := range []string{"short1A", "alllowercase1", "ALLUPPERCASE1", "NoNumbersHere"} {
		err := ValidateStruct(checkoutPayload{PaymentMethod: "cod", Password: password})
		assert.Error(t, err, "password %q should be rejected", password)
	}
}

func TestUsernameValidation(t *testing.T) {
	for _, username := range []string{"budi", "budi_santoso", "user123"} {
		err := ValidateStruct(checkoutPayload{PaymentMethod: "cod", Username: username})
		assert.NoError(t, err, "username %q should be accepted", username)
	}

	for _, username := range []string{"ab", "has space", "h@ndle"} {
		err := ValidateStruct(checkoutPayload{PaymentMethod: "cod", Username: username})
		assert.Error(t, err, "username %q should be rejected", username)
	}
}

func TestGenerateOrderCode(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	code, err := GenerateOrderCode(now)
	require.NoError(t, err)
	assert.Regexp(t, `^TRX-20250310-[A-Z2-9]{8}$`, code)

	other, err := GenerateOrderCode(now)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}
