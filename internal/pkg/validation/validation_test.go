package validation

import (
	"testing"

	"gym-admin-service/internal/domain/user"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Category user.Category   `validate:"required,user_category"`
	Method   string          `validate:"omitempty,payment_method"`
	Amount   decimal.Decimal `validate:"gte=0"`
}

func newValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, Configure(v))
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(sample{Category: user.CategoryStaff, Method: "mobile_money", Amount: decimal.NewFromInt(10)}))
	assert.NoError(t, v.Struct(sample{Category: user.CategoryPublic}))

	assert.Error(t, v.Struct(sample{Category: "alumni"}))
	assert.Error(t, v.Struct(sample{Category: user.CategoryStudent, Method: "cheque"}))
	assert.Error(t, v.Struct(sample{Category: user.CategoryStudent, Amount: decimal.NewFromInt(-5)}))
}

func TestRegisterIsIdempotent(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())
}
