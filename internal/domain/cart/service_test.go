package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/shipping"
	"github.com/xenking/storefront/internal/pricing"
)

// --- Mock implementations ---

type mockCartRepo struct {
	carts   map[string]*Cart
	saveErr error
}

func newCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[string]*Cart)}
}

func (m *mockCartRepo) Create(_ context.Context, c *Cart) error {
	m.carts[c.ID] = c.Clone()
	return nil
}

func (m *mockCartRepo) Get(_ context.Context, id string) (*Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *mockCartRepo) Save(_ context.Context, c *Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[c.ID] = c.Clone()
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, id string) error {
	delete(m.carts, id)
	return nil
}

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context, _ string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) UpdateImage(_ context.Context, _ string, _ product.Image) error {
	return nil
}

type mockDiscountRepo struct{}

func (mockDiscountRepo) FindByCode(_ context.Context, code string) (*discount.Code, error) {
	for _, c := range discount.DefaultCodes() {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, discount.ErrInvalidCode
}

type mockShipping struct{}

func (mockShipping) Methods(_ context.Context) ([]shipping.Method, error) {
	return shipping.DefaultMethods(), nil
}

func (mockShipping) Method(_ context.Context, id string) (*shipping.Method, error) {
	return shipping.FindMethod(shipping.DefaultMethods(), id)
}

func (mockShipping) ValidateAddress(_ context.Context, _ shipping.Address) error {
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T) (*Service, *mockCartRepo, *Cart) {
	t.Helper()
	repo := newCartRepo()
	products := &mockProductRepo{byID: map[string]product.Product{
		"kurta": {ID: "kurta", Name: "Kurta", Price: decimal.RequireFromString("500")},
		"mug":   {ID: "mug", Name: "Mug", Price: decimal.RequireFromString("1.5")},
	}}
	svc := NewService(repo, products, discount.NewLookup(mockDiscountRepo{}), mockShipping{}, pricing.DefaultConfig())

	c, err := svc.Create(context.Background())
	require.NoError(t, err)
	return svc, repo, c
}

// --- Tests ---

func TestService_AddItem(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	got, err := svc.AddItem(ctx, c.ID, "kurta", 1)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Kurta", got.Items[0].Name)
	assert.NotEmpty(t, got.Items[0].ID)

	got, err = svc.AddItem(ctx, c.ID, "kurta", 2)
	require.NoError(t, err)
	require.Len(t, got.Items, 1, "same product merges into one line")
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, 3, got.ItemCount())
}

func TestService_AddItem_Errors(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c.ID, "kurta", 0)
	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
	assert.Equal(t, 0, iq.Quantity)

	_, err = svc.AddItem(ctx, c.ID, "missing", 1)
	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "missing", pnf.ProductID)

	_, err = svc.AddItem(ctx, "no-such-cart", "kurta", 1)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddItem(ctx, c.ID, "kurta", MaxQuantity)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "kurta", 1)
	require.ErrorAs(t, err, &iq, "merged quantity above max is rejected")
}

func TestService_UpdateAndRemove(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()

	got, err := svc.AddItem(ctx, c.ID, "kurta", 1)
	require.NoError(t, err)
	itemID := got.Items[0].ID

	got, err = svc.UpdateQuantity(ctx, c.ID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Items[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, c.ID, itemID, -1)
	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)
	assert.Equal(t, 4, repo.carts[c.ID].Items[0].Quantity, "rejected update leaves cart untouched")

	_, err = svc.UpdateQuantity(ctx, c.ID, "nope", 2)
	require.ErrorIs(t, err, ErrItemNotFound)

	got, err = svc.RemoveItem(ctx, c.ID, itemID)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())

	_, err = svc.RemoveItem(ctx, c.ID, itemID)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestService_Clear(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c.ID, "kurta", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "mug", 2)
	require.NoError(t, err)

	got, err := svc.Clear(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.True(t, repo.carts[c.ID].IsEmpty())
}

func TestService_RemoveOrdered(t *testing.T) {
	svc, repo, c := newTestService(t)
	ctx := context.Background()

	quoted, err := svc.AddItem(ctx, c.ID, "kurta", 2)
	require.NoError(t, err)
	ordered := quoted.Clone().Items

	// Changes made after the quote.
	_, err = svc.AddItem(ctx, c.ID, "kurta", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, c.ID, "mug", 3)
	require.NoError(t, err)

	got, err := svc.RemoveOrdered(ctx, c.ID, ordered)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "kurta", got.Items[0].ProductID)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, "mug", got.Items[1].ProductID)
	assert.Equal(t, 3, got.Items[1].Quantity)
	assert.Len(t, repo.carts[c.ID].Items, 2)

	got, err = svc.RemoveOrdered(ctx, c.ID, got.Items)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
	assert.Zero(t, svc.locks.Len())
}

func TestService_SaveError(t *testing.T) {
	svc, repo, c := newTestService(t)
	repo.saveErr = errors.New("disk full")

	_, err := svc.AddItem(context.Background(), c.ID, "kurta", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart")
	assert.True(t, repo.carts[c.ID].IsEmpty())
}

func TestService_Totals(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c.ID, "kurta", 2)
	require.NoError(t, err)

	q, err := svc.Totals(ctx, c.ID, "save10", "")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", q.Discount.Code)
	assert.Nil(t, q.Method)
	assert.Equal(t, "1176.5", q.Totals.Total.String())

	q, err = svc.Totals(ctx, c.ID, "", "express")
	require.NoError(t, err)
	assert.Equal(t, "400", q.Totals.Shipping.String())

	_, err = svc.Totals(ctx, c.ID, "BOGUS", "")
	require.ErrorIs(t, err, discount.ErrInvalidCode)

	_, err = svc.Totals(ctx, c.ID, "", "drone")
	require.ErrorIs(t, err, shipping.ErrUnknownMethod)
}

func TestService_Totals_WelcomeCappedAtSubtotal(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, c.ID, "mug", 2)
	require.NoError(t, err)

	q, err := svc.Totals(ctx, c.ID, "WELCOME5", "")
	require.NoError(t, err)
	assert.Equal(t, "3", q.Totals.Subtotal.String())
	assert.Equal(t, "3", q.Totals.Discount.String())
}
