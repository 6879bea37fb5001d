package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/pricing"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the lifecycle state of an order.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is the immutable snapshot created when checkout is submitted.
type Order struct {
	ID                string
	Number            string
	CartID            string
	Items             []OrderItem
	Totals            pricing.Totals
	DiscountCode      string
	ShippingAddress   shipping.Address
	BillingAddress    shipping.Address
	ShippingMethod    string
	PaymentMethod     payment.Method
	PaymentLabel      string
	TransactionID     string
	TrackingNumber    string
	EstimatedDelivery time.Time
	Status            Status
	Notes             string
	CreatedAt         time.Time
}

// OrderItem represents a single line item in an order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Image     product.Image   `json:"image"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}

// NewNumber returns a customer-facing order number, ORD-<yyyymmdd>-<6 hex>.
func NewNumber(now time.Time) string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), hex.EncodeToString(b[:]))
}

// NewTrackingNumber returns a carrier tracking number, TRK followed by 10 digits.
func NewTrackingNumber() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10_000_000_000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 10_000_000_000)
	}
	return fmt.Sprintf("TRK%010d", n.Int64())
}
