package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/pricing"
)

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type imageView struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// imageView prefixes image paths with the configured base URL.
func (h *Handler) imageView(img product.Image) imageView {
	prefix := func(p string) string {
		if p == "" {
			return ""
		}
		return h.imageBaseURL + p
	}
	return imageView{
		Thumbnail: prefix(img.Thumbnail),
		Mobile:    prefix(img.Mobile),
		Tablet:    prefix(img.Tablet),
		Desktop:   prefix(img.Desktop),
	}
}

type productView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Price       json.Number `json:"price"`
	Category    string      `json:"category"`
	Image       imageView   `json:"image"`
}

func (h *Handler) productView(p product.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Category:    p.Category,
		Image:       h.imageView(p.Image),
	}
}

type cartItemView struct {
	ID        string      `json:"id"`
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	LineTotal json.Number `json:"lineTotal"`
	Image     imageView   `json:"image"`
}

type cartView struct {
	ID        string         `json:"id"`
	Items     []cartItemView `json:"items"`
	ItemCount int            `json:"itemCount"`
	Subtotal  json.Number    `json:"subtotal"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (h *Handler) cartView(c *cart.Cart) cartView {
	items := make([]cartItemView, len(c.Items))
	for i, it := range c.Items {
		items[i] = cartItemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: money(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: money(it.LineTotal()),
			Image:     h.imageView(it.Image),
		}
	}
	return cartView{
		ID:        c.ID,
		Items:     items,
		ItemCount: c.ItemCount(),
		Subtotal:  money(pricing.Subtotal(c.Lines())),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type totalsView struct {
	Subtotal json.Number `json:"subtotal"`
	Discount json.Number `json:"discount"`
	Tax      json.Number `json:"tax"`
	Shipping json.Number `json:"shipping"`
	Total    json.Number `json:"total"`
}

func newTotalsView(t pricing.Totals) totalsView {
	return totalsView{
		Subtotal: money(t.Subtotal),
		Discount: money(t.Discount),
		Tax:      money(t.Tax),
		Shipping: money(t.Shipping),
		Total:    money(t.Total),
	}
}

type discountView struct {
	Code        string      `json:"code"`
	Type        string      `json:"type"`
	Value       json.Number `json:"value"`
	MinAmount   json.Number `json:"minAmount"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount,omitempty"`
}

func newDiscountView(c *discount.Code) *discountView {
	if c == nil {
		return nil
	}
	return &discountView{
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       money(c.Value),
		MinAmount:   money(c.MinAmount),
		Description: c.Description,
	}
}

type methodView struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Cost    json.Number `json:"cost"`
	MinDays int         `json:"minDays"`
	MaxDays int         `json:"maxDays"`
}

func newMethodView(m *shipping.Method) *methodView {
	if m == nil {
		return nil
	}
	return &methodView{
		ID:      m.ID,
		Name:    m.Name,
		Cost:    money(m.Cost),
		MinDays: m.MinDays,
		MaxDays: m.MaxDays,
	}
}

type quoteView struct {
	CartID         string        `json:"cartId"`
	Totals         totalsView    `json:"totals"`
	Discount       *discountView `json:"discount"`
	ShippingMethod *methodView   `json:"shippingMethod"`
}

func newQuoteView(q *cart.Quote) quoteView {
	return quoteView{
		CartID:         q.Cart.ID,
		Totals:         newTotalsView(q.Totals),
		Discount:       newDiscountView(q.Discount),
		ShippingMethod: newMethodView(q.Method),
	}
}

type stepView struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}

type cardView struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	Expiry     string `json:"expiry"`
}

type sessionView struct {
	ID                    string            `json:"id"`
	CartID                string            `json:"cartId"`
	Status                string            `json:"status"`
	CurrentStep           string            `json:"currentStep"`
	CurrentStepIndex      int               `json:"currentStepIndex"`
	Steps                 []stepView        `json:"steps"`
	ShippingAddress       *shipping.Address `json:"shippingAddress"`
	BillingAddress        *shipping.Address `json:"billingAddress"`
	BillingSameAsShipping bool              `json:"billingSameAsShipping"`
	ShippingMethod        string            `json:"shippingMethod,omitempty"`
	PaymentMethod         string            `json:"paymentMethod,omitempty"`
	Card                  *cardView         `json:"card,omitempty"`
	DiscountCode          string            `json:"discountCode,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
	OrderID               string            `json:"orderId,omitempty"`
	LastError             string            `json:"lastError,omitempty"`
	Totals                *totalsView       `json:"totals,omitempty"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// newSessionView renders a session. Card numbers are masked; q may be nil
// when the totals could not be computed.
func newSessionView(s *checkout.Session, q *cart.Quote) sessionView {
	v := sessionView{
		ID:                    s.ID,
		CartID:                s.CartID,
		Status:                string(s.Status),
		CurrentStep:           s.Steps.Current.String(),
		CurrentStepIndex:      int(s.Steps.Current),
		ShippingAddress:       s.Data.ShippingAddress,
		BillingAddress:        s.Data.Billing(),
		BillingSameAsShipping: s.Data.BillingSameAsShipping,
		ShippingMethod:        s.Data.ShippingMethodID,
		PaymentMethod:         string(s.Data.PaymentMethod),
		DiscountCode:          s.Data.DiscountCode,
		Notes:                 s.Data.Notes,
		OrderID:               s.OrderID,
		LastError:             s.LastError,
		UpdatedAt:             s.UpdatedAt,
	}
	for step := checkout.StepAddress; step <= checkout.StepReview; step++ {
		v.Steps = append(v.Steps, stepView{
			Index: int(step),
			Name:  step.String(),
			Valid: s.Steps.IsValid(step),
		})
	}
	if s.Data.Card != nil {
		m := s.Data.Card.Masked()
		v.Card = &cardView{Number: m.Number, HolderName: m.HolderName, Expiry: m.Expiry}
	}
	if q != nil {
		t := newTotalsView(q.Totals)
		v.Totals = &t
	}
	return v
}

type orderItemView struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	UnitPrice json.Number `json:"unitPrice"`
	Quantity  int         `json:"quantity"`
	LineTotal json.Number `json:"lineTotal"`
	Image     imageView   `json:"image"`
}

type orderView struct {
	ID                string           `json:"id"`
	OrderNumber       string           `json:"orderNumber"`
	Status            string           `json:"status"`
	Items             []orderItemView  `json:"items"`
	Totals            totalsView       `json:"totals"`
	DiscountCode      string           `json:"discountCode,omitempty"`
	ShippingAddress   shipping.Address `json:"shippingAddress"`
	BillingAddress    shipping.Address `json:"billingAddress"`
	ShippingMethod    string           `json:"shippingMethod"`
	PaymentMethod     string           `json:"paymentMethod"`
	PaymentLabel      string           `json:"paymentLabel"`
	TransactionID     string           `json:"transactionId"`
	TrackingNumber    string           `json:"trackingNumber"`
	EstimatedDelivery time.Time        `json:"estimatedDelivery"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

func (h *Handler) orderView(o *order.Order) orderView {
	items := make([]orderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: money(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: money(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))),
			Image:     h.imageView(it.Image),
		}
	}
	return orderView{
		ID:                o.ID,
		OrderNumber:       o.Number,
		Status:            string(o.Status),
		Items:             items,
		Totals:            newTotalsView(o.Totals),
		DiscountCode:      o.DiscountCode,
		ShippingAddress:   o.ShippingAddress,
		BillingAddress:    o.BillingAddress,
		ShippingMethod:    o.ShippingMethod,
		PaymentMethod:     string(o.PaymentMethod),
		PaymentLabel:      o.PaymentLabel,
		TransactionID:     o.TransactionID,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		Notes:             o.Notes,
		CreatedAt:         o.CreatedAt,
	}
}

