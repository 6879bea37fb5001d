package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/cart"
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore keeps carts in memory.
type CartStore struct {
	sim *Simulator

	mu    sync.RWMutex
	carts map[string]*cart.Cart
}

// NewCartStore creates an empty CartStore.
func NewCartStore(sim *Simulator) *CartStore {
	return &CartStore{sim: sim, carts: make(map[string]*cart.Cart)}
}

func (s *CartStore) Create(ctx context.Context, c *cart.Cart) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[c.ID]; ok {
		return errors.Errorf("cart %s already exists", c.ID)
	}
	s.carts[c.ID] = c.Clone()
	return nil
}

func (s *CartStore) Get(ctx context.Context, id string) (*cart.Cart, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[c.ID]; !ok {
		return cart.ErrNotFound
	}
	s.carts[c.ID] = c.Clone()
	return nil
}

func (s *CartStore) Delete(ctx context.Context, id string) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, id)
	return nil
}
