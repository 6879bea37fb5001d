// Package shipping describes delivery methods and the address that an
// order ships to.
package shipping

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownMethod is returned when a shipping method id is not offered.
	ErrUnknownMethod = errors.New("unknown shipping method")
	// ErrUndeliverable is returned when an address cannot be served.
	ErrUndeliverable = errors.New("address is not deliverable")
)

// Method is a delivery option offered at checkout.
type Method struct {
	ID      string
	Name    string
	Cost    decimal.Decimal
	MinDays int
	MaxDays int
}

// EstimatedDelivery returns the latest expected delivery date for an order
// placed at from.
func (m Method) EstimatedDelivery(from time.Time) time.Time {
	return from.AddDate(0, 0, m.MaxDays)
}

// Address is a postal address used for shipping or billing.
type Address struct {
	FullName   string `json:"fullName" validate:"required,max=100"`
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,postalcode"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	Phone      string `json:"phone" validate:"required,phone"`
	Email      string `json:"email" validate:"required,email"`
}

// Service provides delivery method lookup and address verification.
type Service interface {
	Methods(ctx context.Context) ([]Method, error)
	Method(ctx context.Context, id string) (*Method, error)
	ValidateAddress(ctx context.Context, addr Address) error
}

// DefaultMethods is the static method table.
func DefaultMethods() []Method {
	return []Method{
		{ID: "standard", Name: "Standard Delivery", Cost: decimal.NewFromInt(200), MinDays: 5, MaxDays: 7},
		{ID: "express", Name: "Express Delivery", Cost: decimal.NewFromInt(400), MinDays: 2, MaxDays: 3},
		{ID: "overnight", Name: "Overnight Delivery", Cost: decimal.NewFromInt(800), MinDays: 1, MaxDays: 1},
	}
}

// FindMethod returns the method with id from methods.
func FindMethod(methods []Method, id string) (*Method, error) {
	for i := range methods {
		if methods[i].ID == id {
			m := methods[i]
			return &m, nil
		}
	}
	return nil, ErrUnknownMethod
}
