package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore keeps placed orders in memory.
type OrderStore struct {
	sim *Simulator

	mu     sync.RWMutex
	orders map[string]order.Order
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore(sim *Simulator) *OrderStore {
	return &OrderStore{sim: sim, orders: make(map[string]order.Order)}
}

func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return errors.Errorf("order %s already exists", o.ID)
	}
	cp := *o
	cp.Items = slices.Clone(o.Items)
	s.orders[o.ID] = cp
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}
