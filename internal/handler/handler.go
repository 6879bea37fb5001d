// Package handler exposes the storefront over HTTP/JSON using chi.
//
// Every response is wrapped in the envelope {"success", "data", "message"};
// failures add a machine-readable "code" and, for validation problems, a
// "fields" map.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to product image paths. Empty leaves them
	// as stored.
	ImageBaseURL string
}

// Services are the domain dependencies served by the Handler.
type Services struct {
	Products product.Repository
	Carts    *cart.Service
	Codes    *discount.Lookup
	Shipping shipping.Service
	Checkout *checkout.Service
	Orders   order.Repository
	Auth     *auth.Authenticator
}

// Handler implements the storefront HTTP API.
type Handler struct {
	products     product.Repository
	carts        *cart.Service
	codes        *discount.Lookup
	shipping     shipping.Service
	checkout     *checkout.Service
	orders       order.Repository
	auth         *auth.Authenticator
	imageBaseURL string
}

// New constructs a Handler.
func New(cfg Config, svc Services) *Handler {
	return &Handler{
		products:     svc.Products,
		carts:        svc.Carts,
		codes:        svc.Codes,
		shipping:     svc.Shipping,
		checkout:     svc.Checkout,
		orders:       svc.Orders,
		auth:         svc.Auth,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes mounts the API under /api on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.With(h.RequireAPIKey(auth.ScopeProductsWrite)).
			Put("/admin/products/{productID}/image", h.UpdateProductImage)

		r.Post("/carts", h.CreateCart)
		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Get("/totals", h.CartTotals)
			r.Post("/items", h.AddCartItem)
			r.Patch("/items/{itemID}", h.UpdateCartItem)
			r.Delete("/items/{itemID}", h.RemoveCartItem)
		})

		r.Get("/discounts/{code}", h.LookupDiscount)
		r.Get("/shipping-methods", h.ListShippingMethods)

		r.Post("/checkout", h.StartCheckout)
		r.Route("/checkout/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetCheckout)
			r.Put("/address", h.SetCheckoutAddress)
			r.Put("/shipping", h.SetCheckoutShipping)
			r.Put("/payment", h.SetCheckoutPayment)
			r.Put("/notes", h.SetCheckoutNotes)
			r.Put("/discount", h.ApplyCheckoutDiscount)
			r.Delete("/discount", h.RemoveCheckoutDiscount)
			r.Post("/step", h.GoToCheckoutStep)
			r.Post("/review", h.ConfirmCheckoutReview)
			r.Post("/submit", h.SubmitCheckout)
		})

		r.Get("/orders/{orderID}", h.GetOrder)
	})
}
