package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BelowMinimumError indicates the cart subtotal does not reach the minimum
// order value required to enter checkout.
type BelowMinimumError struct {
	Subtotal decimal.Decimal
	Minimum  decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum order value is %s, cart subtotal is %s",
		e.Minimum.StringFixed(2), e.Subtotal.StringFixed(2))
}

// CheckMinimumOrder returns *BelowMinimumError when subtotal < minimum.
func CheckMinimumOrder(subtotal, minimum decimal.Decimal) error {
	if subtotal.LessThan(minimum) {
		return &BelowMinimumError{Subtotal: subtotal, Minimum: minimum}
	}
	return nil
}
