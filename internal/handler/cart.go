package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CreateCart starts an empty cart.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.cartView(c), "")
}

// GetCart returns a cart with its lines.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(c), "")
}

// ClearCart removes every line from a cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(c), "cart cleared")
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// AddCartItem adds a product to the cart. Quantity defaults to 1.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.ProductID == "" {
		h.fail(w, r, &badRequestError{msg: "productId is required"})
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	c, err := h.carts.AddItem(r.Context(), chi.URLParam(r, "cartID"), req.ProductID, qty)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.cartView(c), "item added to cart")
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateCartItem changes the quantity of a cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.fail(w, r, &badRequestError{msg: "quantity is required"})
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(),
		chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"), *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(c), "")
}

// RemoveCartItem deletes a cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(c), "item removed from cart")
}

// CartTotals prices a cart with optional ?discountCode= and ?shippingMethod=.
func (h *Handler) CartTotals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := h.carts.Totals(r.Context(), chi.URLParam(r, "cartID"),
		q.Get("discountCode"), q.Get("shippingMethod"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteView(quote), "")
}

