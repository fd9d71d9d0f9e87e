package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProductWhereDefaultsToActive(t *testing.T) {
	where, args := buildProductWhere(models.ProductFilter{})

	assert.Equal(t, " WHERE is_active = TRUE", where)
	assert.Empty(t, args)
}

func TestBuildProductWhereCombinesFilters(t *testing.T) {
	minPrice, maxPrice, minRating := 10.0, 50.0, 4.0
	where, args := buildProductWhere(models.ProductFilter{
		Search:    "wire_less",
		Category:  models.CategoryElectronics,
		Brand:     "acme",
		MinPrice:  &minPrice,
		MaxPrice:  &maxPrice,
		MinRating: &minRating,
		InStock:   true,
		Featured:  true,
	})

	assert.Contains(t, where, "(name ILIKE $1 OR description ILIKE $1 OR brand ILIKE $1)")
	assert.Contains(t, where, "category = $2")
	assert.Contains(t, where, "brand ILIKE $3")
	assert.Contains(t, where, currentPriceExpr+" >= $4")
	assert.Contains(t, where, currentPriceExpr+" <= $5")
	assert.Contains(t, where, "rating >= $6")
	assert.Contains(t, where, "stock > 0")
	assert.Contains(t, where, "is_featured = TRUE")
	assert.Equal(t, []interface{}{`%wire\_less%`, "Electronics", "%acme%", 10.0, 50.0, 4.0}, args)
}

func TestProductOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, id", productOrderBy(""))
	assert.Equal(t, "created_at DESC, id", productOrderBy("bogus"))
	assert.Equal(t, currentPriceExpr+" ASC, created_at DESC, id", productOrderBy(models.SortPriceAsc))
	assert.Equal(t, "name DESC, id", productOrderBy(models.SortNameDesc))
}

func TestBuildOrderWhere(t *testing.T) {
	where, args := buildOrderWhere(models.OrderFilter{})
	assert.Equal(t, "", where)
	assert.Nil(t, args)

	paid := true
	where, args = buildOrderWhere(models.OrderFilter{UserID: "u1", Status: models.OrderStatusShipped, IsPaid: &paid})
	assert.Equal(t, " WHERE user_id = $1 AND status = $2 AND is_paid = $3", where)
	assert.Equal(t, []interface{}{"u1", "Shipped", true}, args)
}

func TestAggregateQuantities(t *testing.T) {
	got := AggregateQuantities([]models.OrderItem{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 3},
	})
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, got)
}

func TestAggregateQuantitiesSaturates(t *testing.T) {
	got := AggregateQuantities([]models.OrderItem{
		{ProductID: "a", Quantity: math.MaxInt64},
		{ProductID: "a", Quantity: math.MaxInt64},
		{ProductID: "b", Quantity: math.MaxInt32},
		{ProductID: "b", Quantity: 1},
	})
	assert.Equal(t, map[string]int{"a": MaxAggregateQuantity, "b": MaxAggregateQuantity}, got)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("wrapped: %w", sql.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "22P02"}), ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
}

// Integration tests below need a disposable Postgres database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.DestroyAll(ctx))
	return s
}

func seedProduct(t *testing.T, s *Store, sku string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		SKU:         sku,
		Name:        "Widget " + sku,
		Description: "A perfectly ordinary widget",
		Price:       25,
		Images:      []string{"/img/widget.jpg"},
		Category:    models.CategoryOther,
		Brand:       "Acme",
		Stock:       stock,
		IsActive:    true,
	}
	p.Normalize()
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test", Email: email, PasswordHash: "x", Role: models.RoleUser, IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func snapshot(o *models.Order) PrepareOrderFunc {
	return func(locked map[string]models.Product) error {
		for i := range o.Items {
			p := locked[o.Items[i].ProductID]
			o.Items[i].Name = p.Name
			o.Items[i].Image = p.Images[0]
			o.Items[i].Price = p.CurrentPrice()
		}
		return nil
	}
}

func TestPlaceOrderStockBoundary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "buyer@example.com")
	product := seedProduct(t, s, "SKU-1", 3)

	tooMany := &models.Order{
		UserID:        user.ID,
		PaymentMethod: models.PaymentStripe,
		Items:         []models.OrderItem{{ProductID: product.ID, Quantity: 4}},
	}
	err := s.PlaceOrder(ctx, tooMany, snapshot(tooMany))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)

	reloaded, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)

	exact := &models.Order{
		UserID:        user.ID,
		PaymentMethod: models.PaymentStripe,
		TaxPrice:      1.5,
		Items:         []models.OrderItem{{ProductID: product.ID, Quantity: 3}},
	}
	require.NoError(t, s.PlaceOrder(ctx, exact, snapshot(exact)))
	assert.Equal(t, 75.0, exact.ItemsPrice)
	assert.Equal(t, 76.5, exact.TotalPrice)

	reloaded, err = s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)

	stored, err := s.GetOrderByID(ctx, exact.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
}

func TestAddReviewRejectsDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "reviewer@example.com")
	product := seedProduct(t, s, "SKU-2", 1)

	updated, err := s.AddReview(ctx, product.ID, &models.Review{UserID: user.ID, Name: "Test", Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, updated.Rating)
	assert.Equal(t, 1, updated.NumReviews)

	_, err = s.AddReview(ctx, product.ID, &models.Review{UserID: user.ID, Name: "Test", Rating: 1, Comment: "Changed my mind"})
	assert.ErrorIs(t, err, ErrDuplicate)

	reloaded, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, reloaded.Rating)
}

func TestRecordOrderEventOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry := &models.OrderHistoryEntry{
		OrderID:   "6f1c2f7e-3a4b-4c5d-8e9f-0a1b2c3d4e5f",
		EventID:   "evt-1",
		EventType: models.EventTypeOrderCreated,
		Status:    models.OrderStatusPending,
	}
	recorded, err := s.RecordOrderEvent(ctx, entry)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = s.RecordOrderEvent(ctx, entry)
	require.NoError(t, err)
	assert.False(t, recorded)

	history, err := s.GetOrderHistory(ctx, entry.OrderID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPlaceOrderOversizedQuantityConflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "big@example.com")
	product := seedProduct(t, s, "SKU-BIG", 5)

	order := &models.Order{
		UserID:        user.ID,
		PaymentMethod: models.PaymentStripe,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: math.MaxInt64},
			{ProductID: product.ID, Quantity: math.MaxInt64},
		},
	}
	err := s.PlaceOrder(ctx, order, snapshot(order))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)

	reloaded, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "racer@example.com")
	product := seedProduct(t, s, "SKU-LAST", 1)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := &models.Order{
				UserID:        user.ID,
				PaymentMethod: models.PaymentStripe,
				Items:         []models.OrderItem{{ProductID: product.ID, Quantity: 1}},
			}
			errs[i] = s.PlaceOrder(ctx, order, snapshot(order))
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		var stockErr *InsufficientStockError
		assert.ErrorAs(t, err, &stockErr)
	}
	assert.Equal(t, 1, placed)

	reloaded, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)

	_, total, err := s.ListOrders(ctx, models.OrderFilter{UserID: user.ID}, models.NewPageRequest(1, 10, models.DefaultListLimit))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestOrderItemsKeepRequestOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "order@example.com")

	var items []models.OrderItem
	for _, sku := range []string{"SKU-C", "SKU-A", "SKU-E", "SKU-B", "SKU-D"} {
		p := seedProduct(t, s, sku, 10)
		items = append(items, models.OrderItem{ProductID: p.ID, Quantity: 1})
	}
	order := &models.Order{UserID: user.ID, PaymentMethod: models.PaymentStripe, Items: items}
	require.NoError(t, s.PlaceOrder(ctx, order, snapshot(order)))

	want := make([]string, len(items))
	for i, item := range items {
		want[i] = item.ProductID
	}
	productIDs := func(o models.Order) []string {
		ids := make([]string, len(o.Items))
		for i, item := range o.Items {
			ids[i] = item.ProductID
		}
		return ids
	}

	stored, err := s.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, want, productIDs(*stored))

	listed, _, err := s.ListOrders(ctx, models.OrderFilter{UserID: user.ID}, models.NewPageRequest(1, 10, models.DefaultListLimit))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, want, productIDs(listed[0]))
}

func TestModifyProductKeepsStockDecrement(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "edit@example.com")
	product := seedProduct(t, s, "SKU-EDIT", 2)

	order := &models.Order{
		UserID:        user.ID,
		PaymentMethod: models.PaymentStripe,
		Items:         []models.OrderItem{{ProductID: product.ID, Quantity: 2}},
	}
	require.NoError(t, s.PlaceOrder(ctx, order, snapshot(order)))

	updated, err := s.ModifyProduct(ctx, product.ID, func(p *models.Product) error {
		p.Name = "Renamed widget"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed widget", updated.Name)
	assert.Equal(t, 0, updated.Stock)

	rejected := errors.New("rejected")
	_, err = s.ModifyProduct(ctx, product.ID, func(p *models.Product) error {
		p.Name = "Never stored"
		return rejected
	})
	assert.ErrorIs(t, err, rejected)

	reloaded, err := s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed widget", reloaded.Name)
	assert.Equal(t, 0, reloaded.Stock)

	require.NoError(t, s.DeactivateProduct(ctx, product.ID))
	reloaded, err = s.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, "Renamed widget", reloaded.Name)

	assert.ErrorIs(t, s.DeactivateProduct(ctx, "6f1c2f7e-3a4b-4c5d-8e9f-0a1b2c3d4e5f"), ErrNotFound)
	_, err = s.ModifyProduct(ctx, "not-a-uuid", func(p *models.Product) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordLoginLeavesAccountState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "login@example.com")

	_, err := s.ModifyUser(ctx, user.ID, func(u *models.User) error {
		u.IsActive = false
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.RecordLogin(ctx, user.ID, time.Now().UTC()))

	reloaded, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.NotNil(t, reloaded.LastLogin)
}
