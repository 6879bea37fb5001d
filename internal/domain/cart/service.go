package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/keylock"
	"github.com/xenking/storefront/internal/pricing"
)

// Quote is the priced view of a cart.
type Quote struct {
	Cart     *Cart
	Totals   pricing.Totals
	Discount *discount.Code
	Method   *shipping.Method
}

// Service implements cart mutations and pricing.
type Service struct {
	carts    Repository
	products product.Repository
	codes    *discount.Lookup
	shipping shipping.Service
	pricing  pricing.Config
	now      func() time.Time

	// locks serializes read-modify-write cycles per cart id.
	locks keylock.Map
}

// NewService creates a cart Service.
func NewService(
	carts Repository,
	products product.Repository,
	codes *discount.Lookup,
	ship shipping.Service,
	cfg pricing.Config,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		codes:    codes,
		shipping: ship,
		pricing:  cfg,
		now:      time.Now,
	}
}

// Create starts a new empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	now := s.now()
	c := &Cart{
		ID:        uuid.New().String(),
		Items:     []Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get returns the cart with id.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	c, err := s.carts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds quantity of productID to the cart. When the product is
// already in the cart the quantities are merged.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, quantity int) (*Cart, error) {
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, errors.Wrap(err, "get product")
	}

	return s.mutate(ctx, cartID, func(c *Cart) error {
		if i := c.findProduct(productID); i >= 0 {
			merged := c.Items[i].Quantity + quantity
			if err := validQuantity(merged); err != nil {
				return err
			}
			c.Items[i].Quantity = merged
			return nil
		}
		c.Items = append(c.Items, Item{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Image:     p.Image,
			Quantity:  quantity,
		})
		return nil
	})
}

// UpdateQuantity sets the quantity of a cart line.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	if err := validQuantity(quantity); err != nil {
		return nil, err
	}
	return s.mutate(ctx, cartID, func(c *Cart) error {
		i := c.findItem(itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) error {
		i := c.findItem(itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return nil
	})
}

// Clear removes every line from the cart.
func (s *Service) Clear(ctx context.Context, cartID string) (*Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) error {
		c.Items = []Item{}
		return nil
	})
}

// RemoveOrdered subtracts ordered quantities from the matching cart lines.
// Lines added or increased after the order was quoted stay in the cart.
func (s *Service) RemoveOrdered(ctx context.Context, cartID string, ordered []Item) (*Cart, error) {
	return s.mutate(ctx, cartID, func(c *Cart) error {
		for _, it := range ordered {
			i := c.findItem(it.ID)
			if i < 0 {
				continue
			}
			c.Items[i].Quantity -= it.Quantity
			if c.Items[i].Quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			}
		}
		return nil
	})
}

// Totals prices the cart with an optional discount code and shipping
// method. Empty strings mean "none".
func (s *Service) Totals(ctx context.Context, cartID, code, methodID string) (*Quote, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	q := &Quote{Cart: c}
	if code != "" {
		if q.Discount, err = s.codes.Apply(ctx, code); err != nil {
			return nil, err
		}
	}
	if methodID != "" {
		if q.Method, err = s.shipping.Method(ctx, methodID); err != nil {
			return nil, err
		}
	}

	q.Totals = pricing.Calculate(c.Lines(), q.Discount, q.Method, s.pricing)
	return q, nil
}

func (s *Service) mutate(ctx context.Context, cartID string, fn func(c *Cart) error) (*Cart, error) {
	unlock := s.locks.Lock(cartID)
	defer unlock()

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	next := c.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	if err := s.carts.Save(ctx, next); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return next, nil
}
