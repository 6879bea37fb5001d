// Package payment defines payment methods, card details and the processor
// contract used at checkout.
package payment

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method is a payment method offered at checkout.
type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetBanking Method = "netbanking"
	MethodCOD        Method = "cod"
)

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetBanking, MethodCOD:
		return true
	default:
		return false
	}
}

var (
	// ErrDeclined is returned when the payment provider refuses the charge.
	ErrDeclined = errors.New("payment declined")
	// ErrUnavailable is returned when the payment provider cannot be reached.
	ErrUnavailable = errors.New("payment service unavailable")
	// ErrInvalidAmount is returned for non-positive charge amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// Card holds the card details entered at checkout.
type Card struct {
	Number     string `json:"number" validate:"required,cardnumber"`
	HolderName string `json:"holderName" validate:"required,max=100"`
	Expiry     string `json:"expiry" validate:"required,cardexpiry"`
	CVV        string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

// Last4 returns the last four digits of the card number.
func (c Card) Last4() string {
	digits := make([]byte, 0, len(c.Number))
	for i := range len(c.Number) {
		if ch := c.Number[i]; ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}
	if len(digits) < 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}

// Masked returns the card with everything but the last four digits removed.
func (c Card) Masked() Card {
	return Card{Number: "**** " + c.Last4(), HolderName: c.HolderName, Expiry: c.Expiry}
}

// Label returns the human-readable payment label stored on the order.
func Label(m Method, card *Card) string {
	switch m {
	case MethodCard:
		if card != nil {
			return fmt.Sprintf("Card ending %s", card.Last4())
		}
		return "Card"
	case MethodUPI:
		return "UPI"
	case MethodNetBanking:
		return "Net Banking"
	case MethodCOD:
		return "Cash on Delivery"
	default:
		return string(m)
	}
}

// Request is a charge request.
type Request struct {
	Method    Method
	Amount    decimal.Decimal
	Card      *Card
	Reference string
}

// Receipt confirms a successful charge.
type Receipt struct {
	TransactionID string
	Amount        decimal.Decimal
}

// Processor charges a customer.
type Processor interface {
	Process(ctx context.Context, req Request) (*Receipt, error)
}
