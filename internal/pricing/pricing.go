// Package pricing computes order totals from cart lines, an optional
// discount code and the selected shipping method.
//
// Calculate is a pure function: identical inputs always produce identical
// Totals, and nothing outside the returned value is touched.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// Config holds the store-wide pricing parameters.
type Config struct {
	TaxRate               decimal.Decimal
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	MinimumOrder          decimal.Decimal
	ApplyTax              bool
	ApplyShipping         bool
}

// DefaultConfig returns the store defaults: 8.5% tax, 200 flat shipping
// waived from 2000, minimum order 500.
func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.RequireFromString("0.085"),
		ShippingCost:          decimal.NewFromInt(200),
		FreeShippingThreshold: decimal.NewFromInt(2000),
		MinimumOrder:          decimal.NewFromInt(500),
		ApplyTax:              true,
		ApplyShipping:         true,
	}
}

// Line is a priced cart line.
type Line struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// valid reports whether the line refers to a product and has a positive quantity.
func (l Line) valid() bool {
	return l.ProductID != "" && l.Quantity > 0
}

// Totals is the derived price breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums unit price times quantity over valid lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if !l.valid() {
			continue
		}
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Calculate returns the totals for lines. code and method may be nil; with
// no method the flat Config.ShippingCost applies.
func Calculate(lines []Line, code *discount.Code, method *shipping.Method, cfg Config) Totals {
	subtotal := Subtotal(lines)
	// Components are rounded to cents before they are combined: Total is the
	// exact sum of the reported parts.
	disc := discount.Amount(code, subtotal).Round(2)

	taxable := subtotal.Sub(disc)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	tax := decimal.Zero
	if cfg.ApplyTax {
		tax = taxable.Mul(cfg.TaxRate).Round(2)
	}

	ship := shippingCost(subtotal, code, method, cfg)

	total := taxable.Add(tax).Add(ship)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal.Round(2),
		Discount: disc,
		Tax:      tax,
		Shipping: ship.Round(2),
		Total:    total.Round(2),
	}
}

func shippingCost(subtotal decimal.Decimal, code *discount.Code, method *shipping.Method, cfg Config) decimal.Decimal {
	switch {
	case !cfg.ApplyShipping:
		return decimal.Zero
	case !subtotal.LessThan(cfg.FreeShippingThreshold):
		return decimal.Zero
	case code.WaivesShipping(subtotal):
		return decimal.Zero
	case method != nil:
		return method.Cost
	default:
		return cfg.ShippingCost
	}
}
