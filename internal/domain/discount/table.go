package discount

import "github.com/shopspring/decimal"

// DefaultCodes is the static table of valid codes shipped with the store.
func DefaultCodes() []Code {
	return []Code{
		{
			Code:        "SAVE10",
			Type:        TypePercentage,
			Value:       decimal.NewFromInt(10),
			MinAmount:   decimal.NewFromInt(25),
			Active:      true,
			Description: "10% off orders over 25",
		},
		{
			Code:        "WELCOME5",
			Type:        TypeFixed,
			Value:       decimal.NewFromInt(5),
			MinAmount:   decimal.Zero,
			Active:      true,
			Description: "5 off your first order",
		},
		{
			Code:        "FREESHIP",
			Type:        TypeFreeShipping,
			Value:       decimal.Zero,
			MinAmount:   decimal.NewFromInt(500),
			Active:      true,
			Description: "Free shipping on orders over 500",
		},
	}
}
