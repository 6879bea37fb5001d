package discount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		code     *Code
		subtotal decimal.Decimal
		want     decimal.Decimal
	}{
		{
			name:     "nil code",
			subtotal: d("100"),
			want:     d("0"),
		},
		{
			name: "percentage 10% of 1000",
			code: &Code{
				Code: "SAVE10", Type: TypePercentage, Value: d("10"), MinAmount: d("25"), Active: true,
			},
			subtotal: d("1000"),
			want:     d("100"),
		},
		{
			name: "percentage below minimum is voided",
			code: &Code{
				Code: "SAVE10", Type: TypePercentage, Value: d("10"), MinAmount: d("25"), Active: true,
			},
			subtotal: d("24.99"),
			want:     d("0"),
		},
		{
			name: "subtotal equal to minimum qualifies",
			code: &Code{
				Code: "SAVE10", Type: TypePercentage, Value: d("10"), MinAmount: d("25"), Active: true,
			},
			subtotal: d("25"),
			want:     d("2.5"),
		},
		{
			name: "fixed 5 off",
			code: &Code{
				Code: "WELCOME5", Type: TypeFixed, Value: d("5"), Active: true,
			},
			subtotal: d("40"),
			want:     d("5"),
		},
		{
			name: "fixed capped at subtotal",
			code: &Code{
				Code: "WELCOME5", Type: TypeFixed, Value: d("5"), Active: true,
			},
			subtotal: d("3"),
			want:     d("3"),
		},
		{
			name: "percentage over 100 capped at subtotal",
			code: &Code{
				Code: "TOOMUCH", Type: TypePercentage, Value: d("150"), Active: true,
			},
			subtotal: d("80"),
			want:     d("80"),
		},
		{
			name: "negative fixed value floors at zero",
			code: &Code{
				Code: "NEG", Type: TypeFixed, Value: d("-10"), Active: true,
			},
			subtotal: d("80"),
			want:     d("0"),
		},
		{
			name: "free shipping grants no subtotal reduction",
			code: &Code{
				Code: "FREESHIP", Type: TypeFreeShipping, MinAmount: d("500"), Active: true,
			},
			subtotal: d("900"),
			want:     d("0"),
		},
		{
			name: "inactive code",
			code: &Code{
				Code: "OLD", Type: TypeFixed, Value: d("5"), Active: false,
			},
			subtotal: d("100"),
			want:     d("0"),
		},
		{
			name: "zero subtotal",
			code: &Code{
				Code: "WELCOME5", Type: TypeFixed, Value: d("5"), Active: true,
			},
			subtotal: d("0"),
			want:     d("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.code, tt.subtotal)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestAmount_NeverExceedsSubtotal(t *testing.T) {
	for _, c := range DefaultCodes() {
		for _, s := range []string{"0.01", "1", "3", "24.99", "25", "499", "500", "1000", "12345.67"} {
			subtotal := d(s)
			got := Amount(&c, subtotal)
			assert.False(t, got.GreaterThan(subtotal), "%s on %s gave %s", c.Code, s, got)
			assert.False(t, got.IsNegative(), "%s on %s gave %s", c.Code, s, got)
		}
	}
}

func TestWaivesShipping(t *testing.T) {
	freeShip := &Code{Code: "FREESHIP", Type: TypeFreeShipping, MinAmount: d("500"), Active: true}

	assert.True(t, freeShip.WaivesShipping(d("500")))
	assert.False(t, freeShip.WaivesShipping(d("499.99")))

	var none *Code
	assert.False(t, none.WaivesShipping(d("1000")))
}
