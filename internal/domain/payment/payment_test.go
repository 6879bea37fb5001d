package payment

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	card := &Card{Number: "4242 4242 4242 4242"}

	assert.Equal(t, "Card ending 4242", Label(MethodCard, card))
	assert.Equal(t, "Card", Label(MethodCard, nil))
	assert.Equal(t, "UPI", Label(MethodUPI, nil))
	assert.Equal(t, "Net Banking", Label(MethodNetBanking, nil))
	assert.Equal(t, "Cash on Delivery", Label(MethodCOD, nil))
}

func TestCard_Masked(t *testing.T) {
	c := Card{Number: "5555-5555-5555-4444", HolderName: "A Shopper", Expiry: "12/30", CVV: "123"}

	m := c.Masked()
	assert.Equal(t, "**** 4444", m.Number)
	assert.Empty(t, m.CVV)
	assert.Equal(t, "12/30", m.Expiry)
}

func TestMethod_Valid(t *testing.T) {
	assert.True(t, MethodCOD.Valid())
	assert.False(t, Method("cheque").Valid())
}

type stubProcessor struct {
	calls int
	err   error
}

func (s *stubProcessor) Process(_ context.Context, req Request) (*Receipt, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Receipt{TransactionID: "TXN-1", Amount: req.Amount}, nil
}

func TestBreakerProcessor_OpensAfterFailures(t *testing.T) {
	stub := &stubProcessor{err: errors.New("gateway timeout")}
	p := NewBreakerProcessor(stub, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})
	req := Request{Method: MethodUPI, Amount: decimal.NewFromInt(100)}

	for range 2 {
		_, err := p.Process(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}

	_, err := p.Process(context.Background(), req)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the processor")
	assert.Equal(t, "open", p.State())
}

func TestBreakerProcessor_DeclinesDoNotTrip(t *testing.T) {
	stub := &stubProcessor{err: ErrDeclined}
	p := NewBreakerProcessor(stub, BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute})
	req := Request{Method: MethodCard, Amount: decimal.NewFromInt(100)}

	for range 3 {
		_, err := p.Process(context.Background(), req)
		require.ErrorIs(t, err, ErrDeclined)
	}
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, "closed", p.State())
}

func TestBreakerProcessor_Success(t *testing.T) {
	p := NewBreakerProcessor(&stubProcessor{}, BreakerConfig{CallTimeout: time.Second})

	r, err := p.Process(context.Background(), Request{Method: MethodCOD, Amount: decimal.NewFromInt(42)})
	require.NoError(t, err)
	assert.Equal(t, "TXN-1", r.TransactionID)
}
