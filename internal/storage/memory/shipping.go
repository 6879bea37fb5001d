package memory

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/xenking/storefront/internal/domain/shipping"
)

var _ shipping.Service = (*ShippingService)(nil)

// ShippingService serves the static method table and a simulated address
// verification. Only domestic addresses are deliverable.
type ShippingService struct {
	sim     *Simulator
	methods []shipping.Method
	country string

	sfg singleflight.Group
}

// NewShippingService creates a ShippingService delivering to country.
func NewShippingService(sim *Simulator, methods []shipping.Method, country string) *ShippingService {
	return &ShippingService{sim: sim, methods: methods, country: strings.ToUpper(country)}
}

// Methods returns the offered methods. Concurrent callers share one
// simulated round trip, which is not cancelled when a single caller gives up.
func (s *ShippingService) Methods(ctx context.Context) ([]shipping.Method, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan("methods", func() (any, error) {
		if err := s.sim.Do(shared); err != nil {
			return nil, err
		}
		return s.methods, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]shipping.Method)), nil
	}
}

// Method returns the method with id.
func (s *ShippingService) Method(ctx context.Context, id string) (*shipping.Method, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}
	return shipping.FindMethod(s.methods, id)
}

// ValidateAddress accepts addresses in the service country.
func (s *ShippingService) ValidateAddress(ctx context.Context, addr shipping.Address) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}
	if s.country != "" && !strings.EqualFold(addr.Country, s.country) {
		return shipping.ErrUndeliverable
	}
	return nil
}
