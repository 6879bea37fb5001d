package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker around a Processor.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// CallTimeout bounds each call to the wrapped processor.
	CallTimeout time.Duration
}

// BreakerProcessor guards a Processor with a circuit breaker and a per-call
// timeout. Declines are business outcomes and do not count as failures.
type BreakerProcessor struct {
	next    Processor
	cb      *gobreaker.CircuitBreaker[*Receipt]
	timeout time.Duration
}

// NewBreakerProcessor wraps next.
func NewBreakerProcessor(next Processor, cfg BreakerConfig) *BreakerProcessor {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker[*Receipt](gobreaker.Settings{
		Name:        "payment",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDeclined) || errors.Is(err, ErrInvalidAmount)
		},
	})
	return &BreakerProcessor{next: next, cb: cb, timeout: cfg.CallTimeout}
}

// Process implements Processor.
func (p *BreakerProcessor) Process(ctx context.Context, req Request) (*Receipt, error) {
	r, err := p.cb.Execute(func() (*Receipt, error) {
		callCtx := ctx
		if p.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}
		return p.next.Process(callCtx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errors.Wrap(ErrUnavailable, "circuit open")
		}
		return nil, err
	}
	return r, nil
}

// State returns the breaker state name, for health reporting.
func (p *BreakerProcessor) State() string {
	return p.cb.State().String()
}
