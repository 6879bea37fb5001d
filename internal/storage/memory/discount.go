package memory

import (
	"context"

	"github.com/xenking/storefront/internal/domain/discount"
)

var _ discount.Repository = (*DiscountStore)(nil)

// DiscountStore is a static discount code table.
type DiscountStore struct {
	sim   *Simulator
	codes map[string]discount.Code
}

// NewDiscountStore creates a DiscountStore from codes.
func NewDiscountStore(sim *Simulator, codes []discount.Code) *DiscountStore {
	m := make(map[string]discount.Code, len(codes))
	for _, c := range codes {
		m[discount.Normalize(c.Code)] = c
	}
	return &DiscountStore{sim: sim, codes: m}
}

// FindByCode returns the code, active or not.
func (s *DiscountStore) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}
	c, ok := s.codes[discount.Normalize(code)]
	if !ok {
		return nil, discount.ErrInvalidCode
	}
	return &c, nil
}
