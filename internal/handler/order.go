package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetOrder returns an order confirmation.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orderView(o), "")
}
