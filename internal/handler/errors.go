package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/pricing"
	"github.com/xenking/storefront/internal/storage/memory"
)

const msgUnavailable = "service temporarily unavailable, please retry"

// statusClientClosedRequest is reported when the client went away before
// the response was written.
const statusClientClosedRequest = 499

// apiError is the HTTP rendering of a domain error.
type apiError struct {
	status  int
	code    string
	message string
	fields  map[string]string
}

var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{cart.ErrNotFound, http.StatusNotFound, "cart_not_found"},
	{cart.ErrItemNotFound, http.StatusNotFound, "cart_item_not_found"},
	{product.ErrNotFound, http.StatusNotFound, "product_not_found"},
	{order.ErrNotFound, http.StatusNotFound, "order_not_found"},
	{checkout.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},

	{cart.ErrEmpty, http.StatusUnprocessableEntity, "cart_empty"},
	{discount.ErrInvalidCode, http.StatusUnprocessableEntity, "invalid_discount_code"},
	{shipping.ErrUnknownMethod, http.StatusUnprocessableEntity, "unknown_shipping_method"},
	{checkout.ErrStepOutOfRange, http.StatusUnprocessableEntity, "step_out_of_range"},
	{payment.ErrInvalidAmount, http.StatusUnprocessableEntity, "invalid_amount"},

	{checkout.ErrSessionClosed, http.StatusConflict, "session_closed"},
	{checkout.ErrSubmissionInProgress, http.StatusConflict, "submission_in_progress"},
	{checkout.ErrIncompleteSteps, http.StatusConflict, "incomplete_steps"},
	{checkout.ErrNotReviewed, http.StatusConflict, "not_reviewed"},
	{checkout.ErrShippingMethodRequired, http.StatusConflict, "shipping_method_required"},
	{checkout.ErrPaymentMethodRequired, http.StatusConflict, "payment_method_required"},

	{payment.ErrDeclined, http.StatusPaymentRequired, "payment_declined"},

	{auth.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{auth.ErrForbidden, http.StatusForbidden, "forbidden"},
}

// classify maps err onto a status, code and user-facing message.
func classify(err error) apiError {
	var (
		fe       checkout.FieldErrors
		badReq   *badRequestError
		qtyErr   *cart.InvalidQuantityError
		pnfErr   *cart.ProductNotFoundError
		minErr   *pricing.BelowMinimumError
		blockErr *checkout.StepBlockedError
	)
	switch {
	case errors.As(err, &fe):
		return apiError{http.StatusUnprocessableEntity, "validation_failed", "validation failed", fe}
	case errors.As(err, &badReq):
		return apiError{status: http.StatusBadRequest, code: "invalid_request", message: badReq.msg}
	case errors.As(err, &qtyErr):
		return apiError{status: http.StatusUnprocessableEntity, code: "invalid_quantity", message: qtyErr.Error()}
	case errors.As(err, &pnfErr):
		return apiError{status: http.StatusUnprocessableEntity, code: "product_not_found", message: pnfErr.Error()}
	case errors.As(err, &minErr):
		return apiError{status: http.StatusUnprocessableEntity, code: "below_minimum_order", message: minErr.Error()}
	case errors.As(err, &blockErr):
		return apiError{status: http.StatusConflict, code: "step_blocked", message: blockErr.Error()}
	}

	if errors.Is(err, context.Canceled) {
		return apiError{status: statusClientClosedRequest, code: "request_cancelled", message: "request cancelled"}
	}
	if errors.Is(err, payment.ErrUnavailable) ||
		errors.Is(err, memory.ErrSimulatedFailure) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apiError{status: http.StatusServiceUnavailable, code: "service_unavailable", message: msgUnavailable}
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return apiError{status: s.status, code: s.code, message: s.err.Error()}
		}
	}
	return apiError{status: http.StatusInternalServerError, code: "internal_error", message: "internal server error"}
}

// fail writes err as an error envelope. Server errors are logged with the
// full error; clients only see the mapped message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	lg := zctx.From(r.Context())
	switch {
	case e.status == statusClientClosedRequest:
		lg.Debug("Request cancelled by client", zap.Error(err))
	case e.status >= http.StatusInternalServerError && e.status != http.StatusServiceUnavailable:
		lg.Error("Request failed", zap.Error(err))
	case e.status == http.StatusServiceUnavailable:
		lg.Warn("Backend unavailable", zap.Error(err))
	}
	writeError(w, e.status, e.code, e.message, e.fields)
}
