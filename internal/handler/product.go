package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/product"
)

// ListProducts returns the catalog, optionally filtered by ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	products, err := h.products.List(r.Context(), category)
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"))
		return
	}

	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = h.productView(p)
	}
	writeJSON(w, http.StatusOK, out, "")
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.productView(*p), "")
}

type imageRequest struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

func (req imageRequest) validate() error {
	fe := make(checkout.FieldErrors)
	for field, v := range map[string]string{
		"thumbnail": req.Thumbnail,
		"mobile":    req.Mobile,
		"tablet":    req.Tablet,
		"desktop":   req.Desktop,
	} {
		if strings.TrimSpace(v) == "" {
			fe[field] = "is required"
		}
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

// UpdateProductImage replaces a product's image set. Admin only.
func (h *Handler) UpdateProductImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	id := chi.URLParam(r, "productID")
	img := product.Image{
		Thumbnail: req.Thumbnail,
		Mobile:    req.Mobile,
		Tablet:    req.Tablet,
		Desktop:   req.Desktop,
	}
	if err := h.products.UpdateImage(ctx, id, img); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.products.GetByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	fields := []zap.Field{zap.String("product_id", id)}
	if key := apiKeyFromContext(ctx); key != nil {
		fields = append(fields, zap.String("api_key", key.Name))
	}
	zctx.From(ctx).Info("Product image updated", fields...)

	writeJSON(w, http.StatusOK, h.productView(*p), "product image updated")
}
