package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.Repository = (*ProductStore)(nil)

// ProductStore is an in-memory catalog.
type ProductStore struct {
	sim *Simulator

	mu    sync.RWMutex
	order []string
	byID  map[string]product.Product
}

// NewProductStore creates a ProductStore holding products in listing order.
func NewProductStore(sim *Simulator, products []product.Product) *ProductStore {
	s := &ProductStore{
		sim:   sim,
		order: make([]string, 0, len(products)),
		byID:  make(map[string]product.Product, len(products)),
	}
	for _, p := range products {
		if _, ok := s.byID[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

// List returns products, optionally filtered by category.
func (s *ProductStore) List(ctx context.Context, category string) ([]product.Product, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]product.Product, 0, len(s.order))
	for _, id := range s.order {
		p := s.byID[id]
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetByID returns the product with id.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*product.Product, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetByIDs returns the known products among ids. Unknown ids are skipped.
func (s *ProductStore) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if err := s.sim.Do(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateImage replaces the image set of a product.
func (s *ProductStore) UpdateImage(ctx context.Context, id string, img product.Image) error {
	if err := s.sim.Do(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Image = img
	s.byID[id] = p
	return nil
}
