package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/xenking/storefront/internal/domain/payment"
)

// DeclinedCardNumber is the test card that the gateway always declines.
const DeclinedCardNumber = "4000000000000002"

var _ payment.Processor = (*PaymentGateway)(nil)

// PaymentGateway is a simulated payment provider.
type PaymentGateway struct {
	sim *Simulator
}

// NewPaymentGateway creates a PaymentGateway.
func NewPaymentGateway(sim *Simulator) *PaymentGateway {
	return &PaymentGateway{sim: sim}
}

// Process charges req. Cash on delivery is accepted without contacting the
// provider and gets a pseudo transaction id.
func (g *PaymentGateway) Process(ctx context.Context, req payment.Request) (*payment.Receipt, error) {
	if !req.Amount.IsPositive() {
		return nil, payment.ErrInvalidAmount
	}
	if req.Method == payment.MethodCOD {
		return &payment.Receipt{TransactionID: "COD-" + randomHex(6), Amount: req.Amount}, nil
	}

	if err := g.sim.Do(ctx); err != nil {
		return nil, err
	}
	if req.Method == payment.MethodCard && req.Card != nil && digits(req.Card.Number) == DeclinedCardNumber {
		return nil, payment.ErrDeclined
	}
	return &payment.Receipt{TransactionID: "TXN-" + randomHex(8), Amount: req.Amount}, nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
