package discount

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Amount returns the reduction code grants on subtotal. A nil code, an
// inactive code or a subtotal below the code's minimum yields zero rather
// than an error. The result never exceeds subtotal and is never negative.
func Amount(code *Code, subtotal decimal.Decimal) decimal.Decimal {
	if code == nil || !code.Active || !subtotal.IsPositive() {
		return decimal.Zero
	}
	if !code.Qualifies(subtotal) {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch code.Type {
	case TypePercentage:
		amount = subtotal.Mul(code.Value).Div(hundred)
	case TypeFixed:
		amount = code.Value
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, subtotal)
}
