package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductDefaults(t *testing.T) {
	f := newFixture()
	in := productInput("Desk", models.CategoryOther, 120, 4)
	tags := []string{"  Office ", "WOOD"}
	in.Tags = &tags

	p := createProduct(t, f.catalog, in)

	assert.NotEmpty(t, p.ID)
	assert.Regexp(t, regexp.MustCompile(`^PRD-\d{6}-[A-Z0-9]{3}$`), p.SKU)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsFeatured)
	assert.Equal(t, adminID.AccountID, p.CreatedBy)
	assert.Equal(t, []string{"office", "wood"}, []string(p.Tags))
	assert.Equal(t, 0.0, p.Rating)
}

func TestGenerateSKU(t *testing.T) {
	sku := GenerateSKU(time.UnixMilli(1700000123456))
	assert.Regexp(t, `^PRD-123456-[A-Z0-9]{3}$`, sku)

	sku = GenerateSKU(time.UnixMilli(1700000000042))
	assert.Regexp(t, `^PRD-000042-[A-Z0-9]{3}$`, sku)
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	f := newFixture()
	_, err := f.catalog.CreateProduct(context.Background(), buyerID, productInput("Desk", models.CategoryOther, 120, 4))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCreateProductSalePriceMustBeBelowPrice(t *testing.T) {
	f := newFixture()
	in := productInput("Desk", models.CategoryOther, 100, 4)
	in.SalePrice = float(100)

	_, err := f.catalog.CreateProduct(context.Background(), adminID, in)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "salePrice", appErr.Fields[0].Field)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	f := newFixture()
	in := productInput("Desk", models.CategoryOther, 100, 4)
	in.SKU = str("desk-1")
	createProduct(t, f.catalog, in)

	again := productInput("Other desk", models.CategoryOther, 90, 1)
	again.SKU = str("DESK-1")
	_, err := f.catalog.CreateProduct(context.Background(), adminID, again)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateProductMergesAndRevalidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 4))

	updated, err := f.catalog.UpdateProduct(ctx, adminID, p.ID, &ProductInput{SalePrice: float(80)})
	require.NoError(t, err)
	assert.Equal(t, "Desk", updated.Name)
	assert.Equal(t, 80.0, updated.CurrentPrice())
	assert.Equal(t, 20, updated.DiscountPercentage())

	_, err = f.catalog.UpdateProduct(ctx, adminID, p.ID, &ProductInput{Price: float(50)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.catalog.UpdateProduct(ctx, adminID, "missing", &ProductInput{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	stored, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Price)
}

func TestProductEditAfterSellOutKeepsStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 2))

	_, err := f.orders.PlaceOrder(ctx, buyerID.AccountID, orderRequest(OrderItemRequest{Product: p.ID, Quantity: 2}), "")
	require.NoError(t, err)

	updated, err := f.catalog.UpdateProduct(ctx, adminID, p.ID, &ProductInput{Name: str("Standing desk")})
	require.NoError(t, err)
	assert.Equal(t, "Standing desk", updated.Name)
	assert.Equal(t, 0, updated.Stock)

	require.NoError(t, f.catalog.SoftDeleteProduct(ctx, adminID, p.ID))
	stored, err := f.repo.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, "Standing desk", stored.Name)
	assert.False(t, stored.IsActive)

	err = f.catalog.SoftDeleteProduct(ctx, adminID, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestConcurrentEditsAndCheckoutsKeepStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 10))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.orders.PlaceOrder(ctx, buyerID.AccountID, orderRequest(OrderItemRequest{Product: p.ID, Quantity: 1}), "")
			assert.NoError(t, err)
		}()
		go func(i int) {
			defer wg.Done()
			_, err := f.catalog.UpdateProduct(ctx, adminID, p.ID, &ProductInput{Description: str(fmt.Sprintf("Revision %d", i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := f.repo.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)
}

func TestSoftDeleteHidesProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 4))

	require.NoError(t, f.catalog.SoftDeleteProduct(ctx, adminID, p.ID))

	_, err := f.catalog.GetProduct(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	page, err := f.catalog.ListProducts(ctx, models.ProductFilter{}, models.NewPageRequest(1, 0, models.DefaultProductLimit))
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Empty(t, page.Filters.Categories)
}

func TestListProductsCategoryPriceAsc(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	createProduct(t, f.catalog, productInput("Phone", models.CategoryElectronics, 30, 1))
	createProduct(t, f.catalog, productInput("Novel", models.CategoryBooks, 10, 1))
	createProduct(t, f.catalog, productInput("Laptop", models.CategoryElectronics, 10, 1))
	onSale := productInput("Tablet", models.CategoryElectronics, 50, 1)
	onSale.SalePrice = float(20)
	createProduct(t, f.catalog, onSale)

	page, err := f.catalog.ListProducts(ctx,
		models.ProductFilter{Category: models.CategoryElectronics, Sort: models.SortPriceAsc},
		models.NewPageRequest(1, 0, models.DefaultProductLimit))
	require.NoError(t, err)

	names := make([]string, 0, len(page.Products))
	for _, p := range page.Products {
		assert.Equal(t, models.CategoryElectronics, p.Category)
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Laptop", "Tablet", "Phone"}, names)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 12, Total: 3, Pages: 1}, page.Pagination)
	assert.Equal(t, []string{models.CategoryBooks, models.CategoryElectronics}, page.Filters.Categories)
	assert.Equal(t, []string{"Acme"}, page.Filters.Brands)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	createProduct(t, f.catalog, productInput("Red Kettle", models.CategoryHomeGarden, 25, 0))
	featured := productInput("Blue Kettle", models.CategoryHomeGarden, 35, 3)
	yes := true
	featured.IsFeatured = &yes
	createProduct(t, f.catalog, featured)

	page, err := f.catalog.ListProducts(ctx, models.ProductFilter{Search: "KETTLE", InStock: true},
		models.NewPageRequest(1, 10, models.DefaultProductLimit))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Blue Kettle", page.Products[0].Name)

	page, err = f.catalog.ListProducts(ctx, models.ProductFilter{MaxPrice: float(30)},
		models.NewPageRequest(1, 10, models.DefaultProductLimit))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Red Kettle", page.Products[0].Name)

	page, err = f.catalog.ListProducts(ctx, models.ProductFilter{Featured: true},
		models.NewPageRequest(1, 10, models.DefaultProductLimit))
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 4))

	_, err := f.catalog.AddReview(ctx, buyerID, p.ID, &ReviewInput{Rating: 5, Comment: "Great"})
	require.NoError(t, err)
	updated, err := f.catalog.AddReview(ctx, otherID, p.ID, &ReviewInput{Rating: 4, Comment: "Good"})
	require.NoError(t, err)
	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, 2, updated.NumReviews)

	_, err = f.catalog.AddReview(ctx, buyerID, p.ID, &ReviewInput{Rating: 1, Comment: "Changed my mind"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "Product already reviewed", err.Error())

	stored, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, stored.Rating)
	require.Len(t, stored.Reviews, 2)
	assert.Equal(t, "Buyer", stored.Reviews[0].Name)

	require.Len(t, f.publisher.reviews, 2)
	assert.Equal(t, 4.5, f.publisher.reviews[1].NewAverage)
}

func TestAddReviewValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := createProduct(t, f.catalog, productInput("Desk", models.CategoryOther, 100, 4))

	_, err := f.catalog.AddReview(ctx, buyerID, p.ID, &ReviewInput{Rating: 6, Comment: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.catalog.AddReview(ctx, buyerID, p.ID, &ReviewInput{Rating: 3, Comment: "   "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.catalog.AddReview(ctx, buyerID, "missing", &ReviewInput{Rating: 3, Comment: "ok"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.catalog.AddReview(ctx, nil, p.ID, &ReviewInput{Rating: 3, Comment: "ok"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestTopProducts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	low := createProduct(t, f.catalog, productInput("Low", models.CategoryOther, 10, 1))
	high := createProduct(t, f.catalog, productInput("High", models.CategoryOther, 10, 1))

	_, err := f.catalog.AddReview(ctx, buyerID, low.ID, &ReviewInput{Rating: 2, Comment: "meh"})
	require.NoError(t, err)
	_, err = f.catalog.AddReview(ctx, buyerID, high.ID, &ReviewInput{Rating: 5, Comment: "wow"})
	require.NoError(t, err)

	top, err := f.catalog.TopProducts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, high.ID, top[0].ID)

	top, err = f.catalog.TopProducts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
