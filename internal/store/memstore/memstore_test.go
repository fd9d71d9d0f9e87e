package memstore

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(sku string, price float64, stock int) *models.Product {
	p := &models.Product{
		SKU:         sku,
		Name:        "Product " + sku,
		Description: "Sample product description",
		Price:       price,
		Images:      []string{"/img/" + sku + ".jpg"},
		Category:    models.CategoryBooks,
		Brand:       "Acme",
		Stock:       stock,
		IsActive:    true,
	}
	p.Normalize()
	return p
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateProduct(ctx, newProduct("A-1", 10, 1)))
	assert.ErrorIs(t, s.CreateProduct(ctx, newProduct("A-1", 12, 1)), store.ErrDuplicate)
}

func TestReturnedProductsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := newProduct("A-1", 10, 1)
	require.NoError(t, s.CreateProduct(ctx, p))

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	got.Stock = 99
	got.Images[0] = "changed"

	again, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Stock)
	assert.Equal(t, "/img/A-1.jpg", again.Images[0])
}

func TestListProductsSortAndPaginate(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, p := range []*models.Product{
		newProduct("C", 30, 1),
		newProduct("A", 10, 1),
		newProduct("B", 20, 0),
	} {
		require.NoError(t, s.CreateProduct(ctx, p))
	}

	ps, total, err := s.ListProducts(ctx, models.ProductFilter{Sort: models.SortPriceAsc}, models.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, ps, 2)
	assert.Equal(t, 10.0, ps[0].Price)
	assert.Equal(t, 20.0, ps[1].Price)

	ps, total, err = s.ListProducts(ctx, models.ProductFilter{InStock: true}, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, ps, 2)
	assert.Equal(t, "A", ps[0].SKU)
	assert.Equal(t, "C", ps[1].SKU)

	ps, _, err = s.ListProducts(ctx, models.ProductFilter{}, models.PageRequest{Page: 5, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, ps)

	for _, page := range []models.PageRequest{
		{Page: math.MaxInt, Limit: 10},
		{Page: math.MaxInt / 3, Limit: 7},
		{Page: -4, Limit: 10},
		{Page: 1, Limit: 0},
	} {
		ps, total, err = s.ListProducts(ctx, models.ProductFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.LessOrEqual(t, len(ps), 3)
	}
}

func TestModifyProductPreservesConcurrentFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := newProduct("A-1", 10, 2)
	require.NoError(t, s.CreateProduct(ctx, p))
	require.NoError(t, s.CreateProduct(ctx, newProduct("B-1", 10, 2)))

	order := &models.Order{UserID: "u1", Items: []models.OrderItem{{ProductID: p.ID, Quantity: 2}}}
	require.NoError(t, s.PlaceOrder(ctx, order, func(map[string]models.Product) error { return nil }))
	_, err := s.AddReview(ctx, p.ID, &models.Review{UserID: "u1", Name: "U", Rating: 4, Comment: "Fine"})
	require.NoError(t, err)

	updated, err := s.ModifyProduct(ctx, p.ID, func(c *models.Product) error {
		c.Name = "Renamed"
		c.Rating = 1
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, 4.0, updated.Rating)
	assert.Equal(t, 1, updated.NumReviews)

	rejected := errors.New("rejected")
	_, err = s.ModifyProduct(ctx, p.ID, func(c *models.Product) error {
		c.Name = "Never stored"
		return rejected
	})
	assert.ErrorIs(t, err, rejected)

	_, err = s.ModifyProduct(ctx, p.ID, func(c *models.Product) error {
		c.SKU = "B-1"
		return nil
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "A-1", got.SKU)

	require.NoError(t, s.DeactivateProduct(ctx, p.ID))
	got, err = s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 0, got.Stock)

	assert.ErrorIs(t, s.DeactivateProduct(ctx, "missing"), store.ErrNotFound)
	_, err = s.ModifyProduct(ctx, "missing", func(*models.Product) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestModifyUserAndRecordLogin(t *testing.T) {
	s := New()
	ctx := context.Background()
	jane := &models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleUser, IsActive: true}
	john := &models.User{Name: "John", Email: "john@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, jane))
	require.NoError(t, s.CreateUser(ctx, john))

	_, err := s.ModifyUser(ctx, jane.ID, func(u *models.User) error {
		u.Email = "john@example.com"
		return nil
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.ModifyUser(ctx, jane.ID, func(u *models.User) error {
		u.IsActive = false
		return nil
	})
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.RecordLogin(ctx, jane.ID, at))

	got, err := s.GetUserByID(ctx, jane.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "jane@example.com", got.Email)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	assert.ErrorIs(t, s.RecordLogin(ctx, "missing", at), store.ErrNotFound)
}

func TestPlaceOrderNumbersLines(t *testing.T) {
	s := New()
	ctx := context.Background()
	var items []models.OrderItem
	for _, sku := range []string{"C", "A", "B"} {
		p := newProduct(sku, 10, 5)
		require.NoError(t, s.CreateProduct(ctx, p))
		items = append(items, models.OrderItem{ProductID: p.ID, Name: sku, Quantity: 1})
	}

	order := &models.Order{UserID: "u1", Items: items}
	require.NoError(t, s.PlaceOrder(ctx, order, func(map[string]models.Product) error { return nil }))

	got, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	for i, want := range []string{"C", "A", "B"} {
		assert.Equal(t, want, got.Items[i].Name)
		assert.Equal(t, i, got.Items[i].Position)
	}
}

func TestPlaceOrderPrepareErrorLeavesStock(t *testing.T) {
	s := New()
	ctx := context.Background()
	p := newProduct("A-1", 10, 2)
	require.NoError(t, s.CreateProduct(ctx, p))

	order := &models.Order{UserID: "u1", Items: []models.OrderItem{{ProductID: p.ID, Quantity: 3}}}
	err := s.PlaceOrder(ctx, order, func(map[string]models.Product) error { return nil })

	var stockErr *store.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	got, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestRecordOrderEventDedupes(t *testing.T) {
	s := New()
	ctx := context.Background()
	entry := &models.OrderHistoryEntry{OrderID: "o1", EventID: "e1", EventType: models.EventTypeOrderPaid}

	ok, err := s.RecordOrderEvent(ctx, entry)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.RecordOrderEvent(ctx, entry)
	require.NoError(t, err)
	assert.False(t, ok)

	processed, err := s.IsEventProcessed(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, processed)

	history, err := s.GetOrderHistory(ctx, "o1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
