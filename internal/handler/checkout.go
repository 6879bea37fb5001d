package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// IdempotencyKeyHeader identifies one submission attempt.
const IdempotencyKeyHeader = "Idempotency-Key"

// respondSession renders a session with its current totals. Totals are best
// effort: a pricing failure is logged and the totals are omitted.
func (h *Handler) respondSession(w http.ResponseWriter, r *http.Request, status int, sess *checkout.Session, message string) {
	var quote *cart.Quote
	if sess.Status != checkout.StatusCompleted {
		q, err := h.checkout.Quote(r.Context(), sess)
		if err != nil {
			zctx.From(r.Context()).Warn("Price checkout session",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		} else {
			quote = q
		}
	}
	writeJSON(w, status, newSessionView(sess, quote), message)
}

// sessionResult writes the outcome of a session mutation.
func (h *Handler) sessionResult(w http.ResponseWriter, r *http.Request, sess *checkout.Session, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusOK, sess, "")
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

type startCheckoutRequest struct {
	CartID string `json:"cartId"`
}

// StartCheckout opens a checkout session for a cart.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	var req startCheckoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CartID == "" {
		h.fail(w, r, &badRequestError{msg: "cartId is required"})
		return
	}

	sess, err := h.checkout.Start(r.Context(), req.CartID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondSession(w, r, http.StatusCreated, sess, "")
}

// GetCheckout returns a session with its totals.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.Get(r.Context(), sessionID(r))
	h.sessionResult(w, r, sess, err)
}

type addressRequest struct {
	ShippingAddress       shipping.Address  `json:"shippingAddress"`
	BillingAddress        *shipping.Address `json:"billingAddress"`
	BillingSameAsShipping *bool             `json:"billingSameAsShipping"`
}

// SetCheckoutAddress stores the address step. Billing defaults to the
// shipping address.
func (h *Handler) SetCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in := checkout.AddressInput{
		Shipping:              req.ShippingAddress,
		Billing:               req.BillingAddress,
		BillingSameAsShipping: req.BillingSameAsShipping == nil || *req.BillingSameAsShipping,
	}
	sess, err := h.checkout.SetAddress(r.Context(), sessionID(r), in)
	h.sessionResult(w, r, sess, err)
}

type shippingRequest struct {
	MethodID string `json:"methodId"`
}

// SetCheckoutShipping selects the shipping method.
func (h *Handler) SetCheckoutShipping(w http.ResponseWriter, r *http.Request) {
	var req shippingRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.checkout.SelectShipping(r.Context(), sessionID(r), req.MethodID)
	h.sessionResult(w, r, sess, err)
}

type paymentRequest struct {
	Method string        `json:"method"`
	Card   *payment.Card `json:"card"`
}

// SetCheckoutPayment stores the payment method and card details.
func (h *Handler) SetCheckoutPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.checkout.SetPayment(r.Context(), sessionID(r), checkout.PaymentInput{
		Method: payment.Method(req.Method),
		Card:   req.Card,
	})
	h.sessionResult(w, r, sess, err)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// SetCheckoutNotes stores order notes.
func (h *Handler) SetCheckoutNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.checkout.SetNotes(r.Context(), sessionID(r), req.Notes)
	h.sessionResult(w, r, sess, err)
}

type discountRequest struct {
	Code string `json:"code"`
}

// ApplyCheckoutDiscount attaches a discount code to the session.
func (h *Handler) ApplyCheckoutDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sess, err := h.checkout.ApplyDiscount(r.Context(), sessionID(r), req.Code)
	h.sessionResult(w, r, sess, err)
}

// RemoveCheckoutDiscount detaches the discount code.
func (h *Handler) RemoveCheckoutDiscount(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.RemoveDiscount(r.Context(), sessionID(r))
	h.sessionResult(w, r, sess, err)
}

type stepRequest struct {
	Step *int `json:"step"`
}

// GoToCheckoutStep navigates to a step by index.
func (h *Handler) GoToCheckoutStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Step == nil {
		h.fail(w, r, &badRequestError{msg: "step is required"})
		return
	}
	sess, err := h.checkout.GoToStep(r.Context(), sessionID(r), checkout.Step(*req.Step))
	h.sessionResult(w, r, sess, err)
}

// ConfirmCheckoutReview marks the review step as confirmed.
func (h *Handler) ConfirmCheckoutReview(w http.ResponseWriter, r *http.Request) {
	sess, err := h.checkout.ConfirmReview(r.Context(), sessionID(r))
	h.sessionResult(w, r, sess, err)
}

// SubmitCheckout places the order. Repeating a successful submission with
// the same Idempotency-Key returns the original order.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkout.Submit(r.Context(), sessionID(r), r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.orderView(o), "order placed")
}
