package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
)

const (
	orderColumns = `id, number, cart_id, items, subtotal, discount, tax, shipping, total,
		discount_code, shipping_address, billing_address, shipping_method,
		payment_method, payment_label, transaction_id, tracking_number,
		estimated_delivery, status, notes, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items and addresses are serialized to JSON
// for storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal order items")
	}
	shipTo, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal shipping address")
	}
	billTo, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal billing address")
	}

	var eta *time.Time
	if !o.EstimatedDelivery.IsZero() {
		eta = &o.EstimatedDelivery
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, o.CartID, items,
		o.Totals.Subtotal, o.Totals.Discount, o.Totals.Tax, o.Totals.Shipping, o.Totals.Total,
		o.DiscountCode, shipTo, billTo, o.ShippingMethod,
		string(o.PaymentMethod), o.PaymentLabel, o.TransactionID, o.TrackingNumber,
		eta, string(o.Status), o.Notes, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// Get returns the order with id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		items          []byte
		shipTo, billTo []byte
		paymentMethod  string
		status         string
		eta            *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.CartID, &items,
		&o.Totals.Subtotal, &o.Totals.Discount, &o.Totals.Tax, &o.Totals.Shipping, &o.Totals.Total,
		&o.DiscountCode, &shipTo, &billTo, &o.ShippingMethod,
		&paymentMethod, &o.PaymentLabel, &o.TransactionID, &o.TrackingNumber,
		&eta, &status, &o.Notes, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.PaymentMethod = payment.Method(paymentMethod)
	o.Status = order.Status(status)
	if eta != nil {
		o.EstimatedDelivery = *eta
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal(shipTo, &o.ShippingAddress); err != nil {
		return o, errors.Wrap(err, "unmarshal shipping address")
	}
	if err := json.Unmarshal(billTo, &o.BillingAddress); err != nil {
		return o, errors.Wrap(err, "unmarshal billing address")
	}
	return o, nil
}
