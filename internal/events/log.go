package events

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/order"
)

// LogPublisher writes order events to the request logger. It is used when
// no broker is configured.
type LogPublisher struct{}

// OrderPlaced logs the event.
func (LogPublisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("Order placed event",
		zap.String("event_type", TypeOrderPlaced),
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.String("total", o.Totals.Total.StringFixed(2)),
	)
	return nil
}
