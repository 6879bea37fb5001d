package checkout

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/keylock"
	"github.com/xenking/storefront/internal/pricing"
)

// AddressInput is the address step form.
type AddressInput struct {
	Shipping              shipping.Address
	Billing               *shipping.Address
	BillingSameAsShipping bool
}

// PaymentInput is the payment step form.
type PaymentInput struct {
	Method payment.Method
	Card   *payment.Card
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTracerProvider sets the tracer provider used for submission spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("storefront/checkout") }
}

// WithMeterProvider sets the meter provider used for checkout counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter("storefront/checkout") }
}

// Service drives checkout sessions from cart to placed order.
type Service struct {
	sessions  Repository
	carts     Carts
	codes     *discount.Lookup
	shipping  shipping.Service
	payments  payment.Processor
	orders    order.Repository
	publisher Publisher
	pricing   pricing.Config

	validate *Validator
	now      func() time.Time
	tracer   trace.Tracer
	meter    metric.Meter

	ordersPlaced    metric.Int64Counter
	paymentFailures metric.Int64Counter

	locks keylock.Map
}

// NewService creates a checkout Service.
func NewService(
	sessions Repository,
	carts Carts,
	lookup *discount.Lookup,
	ship shipping.Service,
	payments payment.Processor,
	orders order.Repository,
	publisher Publisher,
	cfg pricing.Config,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		sessions:  sessions,
		carts:     carts,
		codes:     lookup,
		shipping:  ship,
		payments:  payments,
		orders:    orders,
		publisher: publisher,
		pricing:   cfg,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(""),
		meter:     metricnoop.NewMeterProvider().Meter(""),
	}
	for _, o := range opts {
		o(s)
	}
	s.validate = NewValidator(func() time.Time { return s.now() })

	var err error
	if s.ordersPlaced, err = s.meter.Int64Counter("checkout.orders_placed",
		metric.WithDescription("Orders placed through checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	if s.paymentFailures, err = s.meter.Int64Counter("checkout.payment_failures",
		metric.WithDescription("Failed payment attempts"),
	); err != nil {
		return nil, errors.Wrap(err, "payment failures counter")
	}
	return s, nil
}

// Start opens a checkout session for a cart. Empty carts and carts below
// the minimum order value are rejected.
func (s *Service) Start(ctx context.Context, cartID string) (*Session, error) {
	q, err := s.carts.Totals(ctx, cartID, "", "")
	if err != nil {
		return nil, err
	}
	if q.Cart.IsEmpty() {
		return nil, cart.ErrEmpty
	}
	if err := pricing.CheckMinimumOrder(q.Totals.Subtotal, s.pricing.MinimumOrder); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		CartID:    cartID,
		Status:    StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.Data.BillingSameAsShipping = true
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return sess, nil
}

// Get returns the session with id.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Get(ctx, id)
}

// Quote prices the session's cart with its discount code and shipping method.
func (s *Service) Quote(ctx context.Context, sess *Session) (*cart.Quote, error) {
	return s.carts.Totals(ctx, sess.CartID, sess.Data.DiscountCode, sess.Data.ShippingMethodID)
}

// SetAddress stores the address step. Field errors are returned as
// FieldErrors and leave the step invalid.
func (s *Service) SetAddress(ctx context.Context, id string, in AddressInput) (*Session, error) {
	fe := make(FieldErrors)
	fe.merge("shipping.", s.validate.Address(in.Shipping))
	if !in.BillingSameAsShipping {
		if in.Billing == nil {
			fe["billing"] = "is required"
		} else {
			fe.merge("billing.", s.validate.Address(*in.Billing))
		}
	}

	if len(fe) == 0 {
		if err := s.shipping.ValidateAddress(ctx, in.Shipping); err != nil {
			if !errors.Is(err, shipping.ErrUndeliverable) {
				return nil, errors.Wrap(err, "validate address")
			}
			fe["shipping.postalCode"] = "is not deliverable"
		}
	}

	return s.edit(ctx, id, func(sess *Session) error {
		ship := in.Shipping
		sess.Data.ShippingAddress = &ship
		sess.Data.BillingSameAsShipping = in.BillingSameAsShipping
		sess.Data.BillingAddress = nil
		if !in.BillingSameAsShipping && in.Billing != nil {
			billing := *in.Billing
			sess.Data.BillingAddress = &billing
		}
		return s.markStep(sess, StepAddress, fe)
	})
}

// SelectShipping stores the chosen shipping method.
func (s *Service) SelectShipping(ctx context.Context, id, methodID string) (*Session, error) {
	fe := make(FieldErrors)
	if methodID == "" {
		fe["shippingMethod"] = "is required"
	} else if _, err := s.shipping.Method(ctx, methodID); err != nil {
		if !errors.Is(err, shipping.ErrUnknownMethod) {
			return nil, errors.Wrap(err, "get shipping method")
		}
		fe["shippingMethod"] = "is not an offered shipping method"
	}

	return s.edit(ctx, id, func(sess *Session) error {
		if len(fe) == 0 {
			sess.Data.ShippingMethodID = methodID
		}
		return s.markStep(sess, StepShipping, fe)
	})
}

// SetPayment stores the payment step. Card details are required and
// validated for card payments only.
func (s *Service) SetPayment(ctx context.Context, id string, in PaymentInput) (*Session, error) {
	fe := make(FieldErrors)
	switch {
	case in.Method == "":
		fe["method"] = "is required"
	case !in.Method.Valid():
		fe["method"] = "is not a supported payment method"
	case in.Method == payment.MethodCard && in.Card == nil:
		fe["card"] = "is required"
	case in.Method == payment.MethodCard:
		fe.merge("card.", s.validate.Card(*in.Card))
	}

	return s.edit(ctx, id, func(sess *Session) error {
		sess.Data.PaymentMethod = in.Method
		sess.Data.Card = nil
		if in.Method == payment.MethodCard && in.Card != nil {
			c := *in.Card
			c.Number = strings.TrimSpace(c.Number)
			sess.Data.Card = &c
		}
		return s.markStep(sess, StepPayment, fe)
	})
}

// ApplyDiscount attaches a discount code. Unknown or inactive codes return
// discount.ErrInvalidCode and leave the session unchanged.
func (s *Service) ApplyDiscount(ctx context.Context, id, code string) (*Session, error) {
	dc, err := s.codes.Apply(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.edit(ctx, id, func(sess *Session) error {
		sess.Data.DiscountCode = dc.Code
		return nil
	})
}

// RemoveDiscount detaches the discount code.
func (s *Service) RemoveDiscount(ctx context.Context, id string) (*Session, error) {
	return s.edit(ctx, id, func(sess *Session) error {
		sess.Data.DiscountCode = ""
		return nil
	})
}

// SetNotes stores free-form order notes.
func (s *Service) SetNotes(ctx context.Context, id, notes string) (*Session, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return nil, FieldErrors{"notes": "must be at most 500 characters"}
	}
	return s.edit(ctx, id, func(sess *Session) error {
		sess.Data.Notes = notes
		return nil
	})
}

// GoToStep navigates the session's stepper.
func (s *Service) GoToStep(ctx context.Context, id string, step Step) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		return sess.Steps.GoTo(step)
	})
}

// ConfirmReview marks the review step valid. The session must be on the
// review step with every earlier step complete.
func (s *Service) ConfirmReview(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		if sess.Steps.Current != StepReview || !sess.Steps.CompleteThrough(StepReview) {
			return ErrIncompleteSteps
		}
		if _, err := s.Quote(ctx, sess); err != nil {
			return err
		}
		sess.Steps.SetValid(StepReview, true)
		return nil
	})
}

// Submit charges the customer and places the order. Payment runs first and
// the order is created only after it succeeds. Once the order exists the
// ordered lines are removed from the cart. A failed attempt reopens the
// session with its data intact; retrying it with the same key reuses a
// charge that already went through. Resubmitting a completed session with
// the same key returns the original order.
func (s *Service) Submit(ctx context.Context, id, key string) (_ *order.Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Submit",
		trace.WithAttributes(attribute.String("checkout.session_id", id)),
	)
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	lg := zctx.From(ctx).With(zap.String("session_id", id))

	sess, q, existing, err := s.beginSubmit(ctx, id, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	span.SetAttributes(attribute.String("checkout.cart_id", sess.CartID))

	o, err := s.place(ctx, sess, q, key)
	if err != nil {
		lg.Warn("Checkout submission failed", zap.Error(err))
		s.abortSubmit(ctx, id, err)
		return nil, err
	}

	if _, err := s.carts.RemoveOrdered(ctx, sess.CartID, q.Cart.Items); err != nil {
		lg.Warn("Remove ordered items from cart", zap.String("order_id", o.ID), zap.Error(err))
	}
	if err := s.publisher.OrderPlaced(ctx, o); err != nil {
		lg.Warn("Publish order placed", zap.String("order_id", o.ID), zap.Error(err))
	}

	if _, err := s.modify(ctx, id, func(cur *Session) error {
		cur.Status = StatusCompleted
		cur.OrderID = o.ID
		cur.LastError = ""
		return nil
	}); err != nil {
		lg.Warn("Mark session completed", zap.String("order_id", o.ID), zap.Error(err))
	}

	s.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(o.PaymentMethod))))
	lg.Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.Number),
		zap.String("total", o.Totals.Total.StringFixed(2)),
	)
	return o, nil
}

// beginSubmit checks submission preconditions and moves the session into
// the submitting state.
func (s *Service) beginSubmit(ctx context.Context, id, key string) (*Session, *cart.Quote, *order.Order, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	switch sess.Status {
	case StatusSubmitting:
		return nil, nil, nil, ErrSubmissionInProgress
	case StatusCompleted:
		if key == "" || key != sess.SubmissionKey {
			return nil, nil, nil, ErrSessionClosed
		}
		o, err := s.orders.Get(ctx, sess.OrderID)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "get order")
		}
		return nil, nil, o, nil
	}

	if !sess.Steps.CompleteThrough(StepReview) {
		return nil, nil, nil, ErrIncompleteSteps
	}
	if sess.Steps.Current != StepReview || !sess.Steps.IsValid(StepReview) {
		return nil, nil, nil, ErrNotReviewed
	}
	if sess.Data.ShippingMethodID == "" {
		return nil, nil, nil, ErrShippingMethodRequired
	}
	if sess.Data.PaymentMethod == "" {
		return nil, nil, nil, ErrPaymentMethodRequired
	}

	q, err := s.Quote(ctx, sess)
	if err != nil {
		return nil, nil, nil, err
	}
	if q.Cart.IsEmpty() {
		return nil, nil, nil, cart.ErrEmpty
	}
	if err := pricing.CheckMinimumOrder(q.Totals.Subtotal, s.pricing.MinimumOrder); err != nil {
		return nil, nil, nil, err
	}

	next := sess.Clone()
	next.Status = StatusSubmitting
	next.SubmissionKey = key
	next.LastError = ""
	next.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, nil, nil, errors.Wrap(err, "save session")
	}
	return next, q, nil, nil
}

func (s *Service) place(ctx context.Context, sess *Session, q *cart.Quote, key string) (*order.Order, error) {
	receipt, err := s.charge(ctx, sess, q.Totals.Total, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]order.OrderItem, 0, len(q.Cart.Items))
	for _, it := range q.Cart.Items {
		items = append(items, order.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}

	o := &order.Order{
		ID:              uuid.New().String(),
		Number:          order.NewNumber(now),
		CartID:          sess.CartID,
		Items:           items,
		Totals:          q.Totals,
		ShippingAddress: *sess.Data.ShippingAddress,
		BillingAddress:  *sess.Data.Billing(),
		PaymentMethod:   sess.Data.PaymentMethod,
		PaymentLabel:    payment.Label(sess.Data.PaymentMethod, sess.Data.Card),
		TransactionID:   receipt.TransactionID,
		TrackingNumber:  order.NewTrackingNumber(),
		Status:          order.StatusConfirmed,
		Notes:           sess.Data.Notes,
		CreatedAt:       now,
	}
	if q.Discount != nil {
		o.DiscountCode = q.Discount.Code
	}
	if q.Method != nil {
		o.ShippingMethod = q.Method.Name
		o.EstimatedDelivery = q.Method.EstimatedDelivery(now)
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// charge takes the payment for an attempt. A receipt already recorded for
// the same key and amount is returned without charging again.
func (s *Service) charge(ctx context.Context, sess *Session, amount decimal.Decimal, key string) (*payment.Receipt, error) {
	if r := sess.Receipt; r != nil && key != "" && sess.ReceiptKey == key && r.Amount.Equal(amount) {
		zctx.From(ctx).Info("Reusing payment from earlier attempt",
			zap.String("session_id", sess.ID),
			zap.String("transaction_id", r.TransactionID),
		)
		return r, nil
	}

	ref := key
	if ref == "" {
		ref = sess.ID
	}
	receipt, err := s.payments.Process(ctx, payment.Request{
		Method:    sess.Data.PaymentMethod,
		Amount:    amount,
		Card:      sess.Data.Card,
		Reference: ref,
	})
	if err != nil {
		s.paymentFailures.Add(ctx, 1)
		return nil, errors.Wrap(err, "process payment")
	}

	if _, err := s.modify(ctx, sess.ID, func(cur *Session) error {
		cur.Receipt = receipt
		cur.ReceiptKey = key
		return nil
	}); err != nil {
		zctx.From(ctx).Warn("Record payment receipt",
			zap.String("session_id", sess.ID),
			zap.String("transaction_id", receipt.TransactionID),
			zap.Error(err),
		)
	}
	return receipt, nil
}

func (s *Service) abortSubmit(ctx context.Context, id string, cause error) {
	if _, err := s.modify(ctx, id, func(sess *Session) error {
		sess.Status = StatusOpen
		sess.LastError = cause.Error()
		return nil
	}); err != nil {
		zctx.From(ctx).Warn("Reopen session", zap.String("session_id", id), zap.Error(err))
	}
}

// markStep records the step outcome. Field errors are saved with the draft
// and then returned to the caller.
func (s *Service) markStep(sess *Session, step Step, fe FieldErrors) error {
	sess.Steps.SetValid(step, len(fe) == 0)
	if len(fe) > 0 {
		return &draftError{err: fe}
	}
	return nil
}

// draftError carries an error that must not discard the draft.
type draftError struct {
	err error
}

func (e *draftError) Error() string { return e.err.Error() }

func (e *draftError) Unwrap() error { return e.err }

// edit applies a data change to an open session. Every data change
// invalidates the review confirmation.
func (s *Service) edit(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Steps.SetValid(StepReview, false)
		return fn(sess)
	})
}

// update applies fn to an open session.
func (s *Service) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	return s.modify(ctx, id, func(sess *Session) error {
		switch sess.Status {
		case StatusSubmitting:
			return ErrSubmissionInProgress
		case StatusCompleted:
			return ErrSessionClosed
		}
		return fn(sess)
	})
}

// modify runs a read-modify-write cycle under the session lock. A
// draftError from fn still saves the session.
func (s *Service) modify(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := sess.Clone()
	fnErr := fn(next)
	var draft *draftError
	if fnErr != nil && !errors.As(fnErr, &draft) {
		return nil, fnErr
	}

	next.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, errors.Wrap(err, "save session")
	}
	if draft != nil {
		return nil, draft.err
	}
	return next, nil
}
