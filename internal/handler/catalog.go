package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/discount"
)

// LookupDiscount resolves a discount code. Unknown or inactive codes are not
// an error: the response carries null data. With ?subtotal= the reduction
// the code grants for that subtotal is included.
func (h *Handler) LookupDiscount(w http.ResponseWriter, r *http.Request) {
	var subtotal *decimal.Decimal
	if raw := r.URL.Query().Get("subtotal"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			h.fail(w, r, &badRequestError{msg: "subtotal must be a non-negative number"})
			return
		}
		subtotal = &d
	}

	code, err := h.codes.Apply(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, discount.ErrInvalidCode) {
		writeJSON(w, http.StatusOK, nil, "invalid discount code")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	v := newDiscountView(code)
	if subtotal != nil {
		v.Amount = money(discount.Amount(code, *subtotal))
	}
	writeJSON(w, http.StatusOK, v, "")
}

// ListShippingMethods returns the delivery options.
func (h *Handler) ListShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.shipping.Methods(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list shipping methods"))
		return
	}
	out := make([]*methodView, len(methods))
	for i := range methods {
		out[i] = newMethodView(&methods[i])
	}
	writeJSON(w, http.StatusOK, out, "")
}
