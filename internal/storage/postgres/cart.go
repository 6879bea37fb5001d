package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, items, created_at, updated_at) VALUES ($1, $2, $3, $4)`

	getCartSQL = `SELECT id, items, created_at, updated_at FROM carts WHERE id = $1`

	saveCartSQL = `UPDATE carts SET items = $2, updated_at = $3 WHERE id = $1`

	deleteCartSQL = `DELETE FROM carts WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Lines are
// stored as a JSONB document on the cart row.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	items, err := marshalItems(c.Items)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, createCartSQL, c.ID, items, c.CreatedAt, c.UpdatedAt); err != nil {
		return errors.Wrapf(err, "create cart %q", c.ID)
	}
	return nil
}

func (r *CartRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get cart %q", id)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get cart %q", id)
	}
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *cart.Cart) error {
	items, err := marshalItems(c.Items)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, saveCartSQL, c.ID, items, c.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "save cart %q", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, id); err != nil {
		return errors.Wrapf(err, "delete cart %q", id)
	}
	return nil
}

func marshalItems(items []cart.Item) ([]byte, error) {
	if items == nil {
		items = []cart.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal cart items")
	}
	return b, nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c     cart.Cart
		items []byte
	)
	if err := row.Scan(&c.ID, &items, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return c, errors.Wrap(err, "unmarshal cart items")
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	return c, nil
}
