package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/events"
	"github.com/xenking/storefront/internal/pricing"
	"github.com/xenking/storefront/internal/storage/memory"
)

const (
	testPepper   = "test-pepper"
	adminKey     = "sk_admin"
	readOnlyKey  = "sk_readonly"
	imageBaseURL = "https://cdn.example.com"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type envelope[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

type testServer struct {
	t        *testing.T
	router   chi.Router
	products *memory.ProductStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	products := memory.NewProductStore(nil, []product.Product{
		{ID: "p-1", Name: "Desk Lamp", Category: "home", Price: decimal.NewFromInt(500),
			Image: product.Image{Thumbnail: "/lamp-t.jpg", Mobile: "/lamp-m.jpg", Tablet: "/lamp-tb.jpg", Desktop: "/lamp-d.jpg"}},
		{ID: "p-2", Name: "Pen", Category: "office", Price: decimal.RequireFromString("3.00")},
	})
	codes := discount.NewLookup(memory.NewDiscountStore(nil, discount.DefaultCodes()))
	ship := memory.NewShippingService(nil, shipping.DefaultMethods(), "IN")
	carts := cart.NewService(memory.NewCartStore(nil), products, codes, ship, pricing.DefaultConfig())
	orders := memory.NewOrderStore(nil)
	sessions := memory.NewSessionStore(time.Hour, time.Hour)
	t.Cleanup(sessions.Close)

	co, err := checkout.NewService(sessions, carts, codes, ship,
		memory.NewPaymentGateway(nil), orders, events.LogPublisher{}, pricing.DefaultConfig(),
		checkout.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	keys := memory.NewAPIKeyStore()
	require.NoError(t, keys.Create(ctx, &auth.APIKey{
		ID: "k1", Name: "admin", KeyHash: auth.HashKey([]byte(testPepper), adminKey),
		Scopes: []string{auth.ScopeProductsWrite},
	}))
	require.NoError(t, keys.Create(ctx, &auth.APIKey{
		ID: "k2", Name: "reader", KeyHash: auth.HashKey([]byte(testPepper), readOnlyKey),
	}))

	h := New(Config{ImageBaseURL: imageBaseURL}, Services{
		Products: products,
		Carts:    carts,
		Codes:    codes,
		Shipping: ship,
		Checkout: co,
		Orders:   orders,
		Auth:     auth.NewAuthenticator(keys, []byte(testPepper)),
	})
	r := chi.NewRouter()
	h.Routes(r)
	return &testServer{t: t, router: r, products: products}
}

func (s *testServer) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func validAddress() shipping.Address {
	return shipping.Address{
		FullName:   "Asha Rao",
		Line1:      "12 MG Road",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
		Country:    "IN",
		Phone:      "9876543210",
		Email:      "asha@example.com",
	}
}

// cartWith creates a cart holding qty of productID.
func (s *testServer) cartWith(productID string, qty int) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/carts", nil)
	require.Equal(s.t, http.StatusCreated, w.Code)
	id := decode[cartView](s.t, w).Data.ID

	w = s.do(http.MethodPost, "/api/carts/"+id+"/items", map[string]any{"productId": productID, "quantity": qty})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return id
}

// readyForSubmit walks a new session through every step with card.
func (s *testServer) readyForSubmit(cartID string, card payment.Card) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/checkout", map[string]string{"cartId": cartID})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	base := "/api/checkout/" + decode[sessionView](s.t, w).Data.ID

	steps := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/address", map[string]any{"shippingAddress": validAddress()}},
		{http.MethodPost, "/step", map[string]int{"step": 1}},
		{http.MethodPut, "/shipping", map[string]string{"methodId": "express"}},
		{http.MethodPost, "/step", map[string]int{"step": 2}},
		{http.MethodPut, "/payment", map[string]any{"method": "card", "card": card}},
		{http.MethodPost, "/step", map[string]int{"step": 3}},
		{http.MethodPost, "/review", nil},
	}
	for _, st := range steps {
		w := s.do(st.method, base+st.path, st.body)
		require.Equal(s.t, http.StatusOK, w.Code, "%s %s: %s", st.method, st.path, w.Body.String())
	}
	return base
}

func goodCard() payment.Card {
	return payment.Card{Number: "4242 4242 4242 4242", HolderName: "Asha Rao", Expiry: "12/27", CVV: "123"}
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]productView](t, w)
	assert.True(t, list.Success)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "p-1", list.Data[0].ID)
	assert.Equal(t, json.Number("500.00"), list.Data[0].Price)
	assert.Equal(t, imageBaseURL+"/lamp-t.jpg", list.Data[0].Image.Thumbnail)
	assert.Empty(t, list.Data[1].Image.Thumbnail, "missing images stay empty")

	w = s.do(http.MethodGet, "/api/products?category=office", nil)
	filtered := decode[[]productView](t, w)
	require.Len(t, filtered.Data, 1)
	assert.Equal(t, "p-2", filtered.Data[0].ID)

	w = s.do(http.MethodGet, "/api/products/p-2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pen", decode[productView](t, w).Data.Name)

	w = s.do(http.MethodGet, "/api/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode[any](t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "product_not_found", env.Code)
}

func TestUpdateProductImage(t *testing.T) {
	img := map[string]string{
		"thumbnail": "/new-t.jpg", "mobile": "/new-m.jpg", "tablet": "/new-tb.jpg", "desktop": "/new-d.jpg",
	}
	tests := []struct {
		name       string
		headers    []string
		body       any
		wantStatus int
		wantCode   string
	}{
		{name: "missing key", body: img, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "unknown key", headers: []string{APIKeyHeader, "sk_wrong"}, body: img, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "missing scope", headers: []string{APIKeyHeader, readOnlyKey}, body: img, wantStatus: http.StatusForbidden, wantCode: "forbidden"},
		{
			name:       "missing variants",
			headers:    []string{APIKeyHeader, adminKey},
			body:       map[string]string{"thumbnail": "/t.jpg"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "validation_failed",
		},
		{name: "bearer token", headers: []string{"Authorization", "Bearer " + adminKey}, body: img, wantStatus: http.StatusOK},
		{name: "api key header", headers: []string{APIKeyHeader, adminKey}, body: img, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			w := s.do(http.MethodPut, "/api/admin/products/p-1/image", tt.body, tt.headers...)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[any](t, w).Code)
				return
			}
			p := decode[productView](t, w).Data
			assert.Equal(t, imageBaseURL+"/new-d.jpg", p.Image.Desktop)

			stored, err := s.products.GetByID(context.Background(), "p-1")
			require.NoError(t, err)
			assert.Equal(t, "/new-d.jpg", stored.Image.Desktop)
		})
	}
}

func TestCartLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.cartWith("p-1", 2)

	w := s.do(http.MethodPost, "/api/carts/"+id+"/items", map[string]any{"productId": "p-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	c := decode[cartView](t, w).Data
	require.Len(t, c.Items, 1, "same product merges")
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, json.Number("1500.00"), c.Subtotal)
	itemID := c.Items[0].ID

	w = s.do(http.MethodPatch, "/api/carts/"+id+"/items/"+itemID, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, json.Number("1000.00"), decode[cartView](t, w).Data.Items[0].LineTotal)

	w = s.do(http.MethodPatch, "/api/carts/"+id+"/items/"+itemID, map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_quantity", decode[any](t, w).Code)

	w = s.do(http.MethodPost, "/api/carts/"+id+"/items", map[string]any{"productId": "ghost", "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "product_not_found", decode[any](t, w).Code)

	w = s.do(http.MethodDelete, "/api/carts/"+id+"/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartView](t, w).Data.Items)

	w = s.do(http.MethodDelete, "/api/carts/"+id+"/items/"+itemID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "cart_item_not_found", decode[any](t, w).Code)

	w = s.do(http.MethodGet, "/api/carts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "cart_not_found", decode[any](t, w).Code)
}

func TestCartTotals(t *testing.T) {
	tests := []struct {
		name      string
		qty       int
		query     string
		wantTotal json.Number
		wantShip  json.Number
		wantCode  string
	}{
		{name: "SAVE10 on 1000", qty: 2, query: "?discountCode=save10", wantTotal: "1176.50", wantShip: "200.00"},
		{name: "free shipping threshold", qty: 5, query: "", wantTotal: "2712.50", wantShip: "0.00"},
		{name: "express method", qty: 2, query: "?shippingMethod=express", wantTotal: "1485.00", wantShip: "400.00"},
		{name: "FREESHIP", qty: 2, query: "?discountCode=FREESHIP&shippingMethod=overnight", wantTotal: "1085.00", wantShip: "0.00"},
		{name: "invalid code", qty: 1, query: "?discountCode=BOGUS", wantCode: "invalid_discount_code"},
		{name: "unknown method", qty: 1, query: "?shippingMethod=teleport", wantCode: "unknown_shipping_method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			id := s.cartWith("p-1", tt.qty)

			w := s.do(http.MethodGet, "/api/carts/"+id+"/totals"+tt.query, nil)
			if tt.wantCode != "" {
				assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
				assert.Equal(t, tt.wantCode, decode[any](t, w).Code)
				return
			}
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			q := decode[quoteView](t, w).Data
			assert.Equal(t, tt.wantTotal, q.Totals.Total)
			assert.Equal(t, tt.wantShip, q.Totals.Shipping)
		})
	}
}

func TestLookupDiscount(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/discounts/welcome5?subtotal=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	code := decode[*discountView](t, w).Data
	require.NotNil(t, code)
	assert.Equal(t, "WELCOME5", code.Code)
	assert.Equal(t, json.Number("3.00"), code.Amount, "fixed discount capped at subtotal")

	w = s.do(http.MethodGet, "/api/discounts/NOPE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[*discountView](t, w)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)
	assert.Equal(t, "invalid discount code", env.Message)

	w = s.do(http.MethodGet, "/api/discounts/SAVE10?subtotal=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListShippingMethods(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/shipping-methods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	methods := decode[[]methodView](t, w).Data
	require.Len(t, methods, 3)
	assert.Equal(t, "standard", methods[0].ID)
	assert.Equal(t, json.Number("200.00"), methods[0].Cost)
}

func TestCheckout_StartRejections(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/checkout", map[string]string{"cartId": s.cartWith("p-2", 1)})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "below_minimum_order", decode[any](t, w).Code)

	w = s.do(http.MethodPost, "/api/checkout", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/checkout", map[string]string{"cartId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/checkout", map[string]any{"cart": "typo"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")
}

func TestCheckout_StepsAndValidation(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/checkout", map[string]string{"cartId": s.cartWith("p-1", 2)})
	require.Equal(t, http.StatusCreated, w.Code)
	sess := decode[sessionView](t, w).Data
	assert.Equal(t, "address", sess.CurrentStep)
	require.Len(t, sess.Steps, 4)
	require.NotNil(t, sess.Totals)
	assert.Equal(t, json.Number("1285.00"), sess.Totals.Total)
	base := "/api/checkout/" + sess.ID

	w = s.do(http.MethodPost, base+"/step", map[string]int{"step": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "step_blocked", decode[any](t, w).Code)

	bad := validAddress()
	bad.PostalCode = "12"
	bad.Email = "nope"
	w = s.do(http.MethodPut, base+"/address", map[string]any{"shippingAddress": bad})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode[any](t, w)
	assert.Equal(t, "validation_failed", env.Code)
	assert.Contains(t, env.Fields, "shipping.postalCode")
	assert.Contains(t, env.Fields, "shipping.email")

	w = s.do(http.MethodGet, base, nil)
	sess = decode[sessionView](t, w).Data
	assert.False(t, sess.Steps[0].Valid)
	require.NotNil(t, sess.ShippingAddress, "draft is kept after a validation failure")
	assert.Equal(t, "12", sess.ShippingAddress.PostalCode)

	w = s.do(http.MethodPut, base+"/address", map[string]any{"shippingAddress": validAddress()})
	require.Equal(t, http.StatusOK, w.Code)
	sess = decode[sessionView](t, w).Data
	assert.True(t, sess.Steps[0].Valid)
	assert.Equal(t, "Asha Rao", sess.BillingAddress.FullName, "billing defaults to shipping")

	w = s.do(http.MethodPost, base+"/step", map[string]int{"step": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "step_out_of_range", decode[any](t, w).Code)

	w = s.do(http.MethodPut, base+"/discount", map[string]string{"code": "bogus"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPut, base+"/discount", map[string]string{"code": "save10"})
	require.Equal(t, http.StatusOK, w.Code)
	sess = decode[sessionView](t, w).Data
	assert.Equal(t, "SAVE10", sess.DiscountCode)
	assert.Equal(t, json.Number("1176.50"), sess.Totals.Total)

	w = s.do(http.MethodDelete, base+"/discount", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[sessionView](t, w).Data.DiscountCode)

	w = s.do(http.MethodPost, base+"/review", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "incomplete_steps", decode[any](t, w).Code)

	w = s.do(http.MethodGet, "/api/checkout/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session_not_found", decode[any](t, w).Code)
}

func TestCheckout_Submit(t *testing.T) {
	s := newTestServer(t)
	cartID := s.cartWith("p-1", 2)
	base := s.readyForSubmit(cartID, goodCard())

	w := s.do(http.MethodGet, base, nil)
	sess := decode[sessionView](t, w).Data
	require.NotNil(t, sess.Card)
	assert.Equal(t, "**** 4242", sess.Card.Number)

	w = s.do(http.MethodPost, base+"/submit", nil, IdempotencyKeyHeader, "attempt-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[orderView](t, w).Data
	assert.Regexp(t, `^ORD-20250615-[0-9a-f]{6}$`, o.OrderNumber)
	assert.Equal(t, json.Number("1485.00"), o.Totals.Total)
	assert.Equal(t, "Card ending 4242", o.PaymentLabel)
	assert.Equal(t, "Express Delivery", o.ShippingMethod)
	assert.Equal(t, "confirmed", o.Status)
	assert.Equal(t, imageBaseURL+"/lamp-t.jpg", o.Items[0].Image.Thumbnail)

	w = s.do(http.MethodPost, base+"/submit", nil, IdempotencyKeyHeader, "attempt-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, o.ID, decode[orderView](t, w).Data.ID, "same key returns the same order")

	w = s.do(http.MethodPost, base+"/submit", nil, IdempotencyKeyHeader, "attempt-2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "session_closed", decode[any](t, w).Code)

	w = s.do(http.MethodPut, base+"/notes", map[string]string{"notes": "late edit"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/orders/"+o.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, o.OrderNumber, decode[orderView](t, w).Data.OrderNumber)

	w = s.do(http.MethodGet, "/api/carts/"+cartID, nil)
	assert.Empty(t, decode[cartView](t, w).Data.Items, "cart cleared after order")

	w = s.do(http.MethodGet, base, nil)
	sess = decode[sessionView](t, w).Data
	assert.Equal(t, "completed", sess.Status)
	assert.Equal(t, o.ID, sess.OrderID)

	w = s.do(http.MethodGet, "/api/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckout_SubmitDeclined(t *testing.T) {
	s := newTestServer(t)
	cartID := s.cartWith("p-1", 2)
	declined := goodCard()
	declined.Number = memory.DeclinedCardNumber
	base := s.readyForSubmit(cartID, declined)

	w := s.do(http.MethodPost, base+"/submit", nil, IdempotencyKeyHeader, "attempt-1")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	env := decode[any](t, w)
	assert.Equal(t, "payment_declined", env.Code)
	assert.Equal(t, "payment declined", env.Message)

	w = s.do(http.MethodGet, base, nil)
	sess := decode[sessionView](t, w).Data
	assert.Equal(t, "open", sess.Status)
	assert.Contains(t, sess.LastError, "payment declined")
	assert.Equal(t, "review", sess.CurrentStep)

	w = s.do(http.MethodGet, "/api/carts/"+cartID, nil)
	assert.Len(t, decode[cartView](t, w).Data.Items, 1, "cart untouched after a failed payment")
}

func TestCheckout_SubmitBeforeReview(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodPost, "/api/checkout", map[string]string{"cartId": s.cartWith("p-1", 2)})
	id := decode[sessionView](t, w).Data.ID

	w = s.do(http.MethodPost, "/api/checkout/"+id+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "incomplete_steps", decode[any](t, w).Code)
}

func TestRoutes_NotFound(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[any](t, w).Code)
}

func TestDecodeBody(t *testing.T) {
	s := newTestServer(t)
	id := s.cartWith("p-1", 1)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "malformed", body: "{"},
		{name: "trailing", body: `{"productId":"p-1"} {}`},
		{name: "wrong type", body: `{"productId":"p-1","quantity":"two"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/carts/"+id+"/items", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_request", decode[any](t, w).Code)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"field errors", checkout.FieldErrors{"email": "is required"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"wrapped declined", errors.Wrap(payment.ErrDeclined, "process payment"), http.StatusPaymentRequired, "payment_declined"},
		{"breaker open", errors.Wrap(payment.ErrUnavailable, "process payment"), http.StatusServiceUnavailable, "service_unavailable"},
		{"simulated failure", errors.Wrap(memory.ErrSimulatedFailure, "create order"), http.StatusServiceUnavailable, "service_unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "service_unavailable"},
		{"client cancelled", errors.Wrap(context.Canceled, "process payment"), statusClientClosedRequest, "request_cancelled"},
		{"in progress", checkout.ErrSubmissionInProgress, http.StatusConflict, "submission_in_progress"},
		{"below minimum", &pricing.BelowMinimumError{Subtotal: decimal.NewFromInt(3), Minimum: decimal.NewFromInt(500)}, http.StatusUnprocessableEntity, "below_minimum_order"},
		{"empty cart", cart.ErrEmpty, http.StatusUnprocessableEntity, "cart_empty"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.wantStatus, got.status)
			assert.Equal(t, tt.wantCode, got.code)
		})
	}
}
