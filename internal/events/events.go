// Package events publishes order lifecycle events.
package events

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
)

// TypeOrderPlaced is the event type header for placed orders.
const TypeOrderPlaced = "order.placed"

// EncodeOrderPlaced renders the order.placed payload.
func EncodeOrderPlaced(o *order.Order, at time.Time) []byte {
	var e jx.Encoder
	e.ObjStart()

	e.FieldStart("type")
	e.Str(TypeOrderPlaced)
	e.FieldStart("occurred_at")
	e.Str(at.UTC().Format(time.RFC3339))

	e.FieldStart("order_id")
	e.Str(o.ID)
	e.FieldStart("order_number")
	e.Str(o.Number)
	e.FieldStart("cart_id")
	e.Str(o.CartID)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_method")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("transaction_id")
	e.Str(o.TransactionID)
	if o.DiscountCode != "" {
		e.FieldStart("discount_code")
		e.Str(o.DiscountCode)
	}

	e.FieldStart("totals")
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Str(o.Totals.Subtotal.StringFixed(2))
	e.FieldStart("discount")
	e.Str(o.Totals.Discount.StringFixed(2))
	e.FieldStart("tax")
	e.Str(o.Totals.Tax.StringFixed(2))
	e.FieldStart("shipping")
	e.Str(o.Totals.Shipping.StringFixed(2))
	e.FieldStart("total")
	e.Str(o.Totals.Total.StringFixed(2))
	e.ObjEnd()

	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(it.ProductID)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.FieldStart("unit_price")
		e.Str(it.UnitPrice.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()

	e.ObjEnd()
	return e.Bytes()
}
