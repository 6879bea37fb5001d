package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/discount"
)

const (
	getDiscountByCodeSQL = `SELECT code, type, value, min_amount, active, description
		FROM discount_codes WHERE code = UPPER($1)`

	upsertDiscountSQL = `INSERT INTO discount_codes (code, type, value, min_amount, active, description)
		VALUES (UPPER($1), $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			min_amount = EXCLUDED.min_amount,
			active = EXCLUDED.active,
			description = EXCLUDED.description`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up a code case-insensitively, active or not. Returns
// discount.ErrInvalidCode when no row matches.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, getDiscountByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find discount code %q", code)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrInvalidCode
		}
		return nil, errors.Wrapf(err, "find discount code %q", code)
	}
	return &c, nil
}

// Upsert inserts or replaces codes in a single batch.
func (r *DiscountRepository) Upsert(ctx context.Context, codes ...discount.Code) error {
	if len(codes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(upsertDiscountSQL, c.Code, string(c.Type), c.Value, c.MinAmount, c.Active, c.Description)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrapf(err, "upsert %d discount codes", len(codes))
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Code, error) {
	var (
		c   discount.Code
		typ string
	)
	err := row.Scan(&c.Code, &typ, &c.Value, &c.MinAmount, &c.Active, &c.Description)
	c.Type = discount.Type(typ)
	return c, err
}
