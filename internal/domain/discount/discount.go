// Package discount holds discount codes and the rules for turning a code
// into a monetary reduction of the cart subtotal.
package discount

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage reduces the subtotal by Value percent.
	TypePercentage Type = "percentage"
	// TypeFixed reduces the subtotal by Value, capped at the subtotal.
	TypeFixed Type = "fixed"
	// TypeFreeShipping waives the shipping charge and leaves the subtotal as is.
	TypeFreeShipping Type = "free_shipping"
)

// Valid reports whether t is a known discount type.
func (t Type) Valid() bool {
	switch t {
	case TypePercentage, TypeFixed, TypeFreeShipping:
		return true
	default:
		return false
	}
}

// ErrInvalidCode is returned when a code is unknown or no longer active.
var ErrInvalidCode = errors.New("invalid discount code")

// Code is an issued discount code. Codes are immutable once issued.
type Code struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	MinAmount   decimal.Decimal
	Active      bool
	Description string
}

// Qualifies reports whether subtotal meets the code's minimum amount.
func (c *Code) Qualifies(subtotal decimal.Decimal) bool {
	return !subtotal.LessThan(c.MinAmount)
}

// WaivesShipping reports whether the code waives shipping for subtotal.
func (c *Code) WaivesShipping(subtotal decimal.Decimal) bool {
	return c != nil && c.Type == TypeFreeShipping && c.Qualifies(subtotal)
}

// Normalize canonicalizes a user-entered code for lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides lookup of discount codes.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Code, error)
}
