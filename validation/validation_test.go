package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Email("email", "not-an-email", v)
	Email("email2", "jane@example.com", v)
	PositiveDecimal("quantity", decimal.Zero, v)
	RangeDecimal("tax_rate", decimal.NewFromInt(120), decimal.Zero, decimal.NewFromInt(100), v)
	MaxLength("phone", "0123456789012345678901234567890123456789012345678901", 50, v)

	assert.Equal(t, Violations{
		"name":     "required",
		"email":    "invalid_email",
		"quantity": "must_be_positive",
		"tax_rate": "out_of_range",
		"phone":    "out_of_range",
	}, v)
	assert.EqualError(t, v, "validation failed: email: invalid_email, name: required, phone: out_of_range, quantity: must_be_positive, tax_rate: out_of_range")
}

func TestViolations_Err(t *testing.T) {
	assert.NoError(t, Violations{}.Err())
	assert.Error(t, Violations{"a": "required"}.Err())
}
