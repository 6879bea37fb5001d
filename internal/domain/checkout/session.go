// Package checkout implements the multi-step checkout flow: the step state
// machine, form validation and order submission.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/shipping"
)

var (
	// ErrSessionNotFound is returned for unknown or expired sessions.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSessionClosed is returned when a completed session is modified.
	ErrSessionClosed = errors.New("checkout session is already completed")
	// ErrSubmissionInProgress is returned while an order is being submitted.
	ErrSubmissionInProgress = errors.New("order submission already in progress")
	// ErrIncompleteSteps is returned when an earlier step is not valid.
	ErrIncompleteSteps = errors.New("previous checkout steps are incomplete")
	// ErrNotReviewed is returned when submitting before the review is confirmed.
	ErrNotReviewed = errors.New("order has not been reviewed")
	// ErrShippingMethodRequired is returned when no shipping method is selected.
	ErrShippingMethodRequired = errors.New("shipping method is required")
	// ErrPaymentMethodRequired is returned when no payment method is selected.
	ErrPaymentMethodRequired = errors.New("payment method is required")
)

// MaxNotesLength is the maximum length of order notes.
const MaxNotesLength = 500

// Status is the lifecycle state of a session.
type Status string

const (
	StatusOpen       Status = "open"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
)

// Data is the draft entered across the checkout steps.
type Data struct {
	ShippingAddress       *shipping.Address
	BillingAddress        *shipping.Address
	BillingSameAsShipping bool
	ShippingMethodID      string
	PaymentMethod         payment.Method
	Card                  *payment.Card
	DiscountCode          string
	Notes                 string
}

// Billing returns the effective billing address.
func (d *Data) Billing() *shipping.Address {
	if d.BillingSameAsShipping {
		return d.ShippingAddress
	}
	return d.BillingAddress
}

// Session is one shopper's pass through checkout for a cart.
type Session struct {
	ID            string
	CartID        string
	Steps         Stepper
	Data          Data
	Status        Status
	SubmissionKey string
	// Receipt is the charge taken by the attempt keyed ReceiptKey. It is
	// reused when that attempt is retried after the order failed.
	Receipt       *payment.Receipt
	ReceiptKey    string
	OrderID       string
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.Data.ShippingAddress != nil {
		a := *s.Data.ShippingAddress
		c.Data.ShippingAddress = &a
	}
	if s.Data.BillingAddress != nil {
		a := *s.Data.BillingAddress
		c.Data.BillingAddress = &a
	}
	if s.Data.Card != nil {
		card := *s.Data.Card
		c.Data.Card = &card
	}
	if s.Receipt != nil {
		r := *s.Receipt
		c.Receipt = &r
	}
	return &c
}

// Repository stores checkout sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// Carts is the subset of the cart service used by checkout.
type Carts interface {
	Totals(ctx context.Context, cartID, code, methodID string) (*cart.Quote, error)
	RemoveOrdered(ctx context.Context, cartID string, ordered []cart.Item) (*cart.Cart, error)
}

// Publisher announces placed orders.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *order.Order) error
}
