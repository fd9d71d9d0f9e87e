package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store/memstore"
	"storefront-service/internal/util"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

var (
	adminID = &auth.Identity{AccountID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
	buyerID = &auth.Identity{AccountID: "buyer-1", Name: "Buyer", Role: models.RoleUser}
	otherID = &auth.Identity{AccountID: "buyer-2", Name: "Other", Role: models.RoleUser}
)

type fakePublisher struct {
	mu      sync.Mutex
	orders  []*models.OrderEvent
	reviews []*models.ProductReviewedEvent
	err     error
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, e *models.OrderEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, e)
	return f.err
}

func (f *fakePublisher) PublishProductReviewed(_ context.Context, e *models.ProductReviewedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, e)
	return f.err
}

func (f *fakePublisher) orderEventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.orders))
	for _, e := range f.orders {
		out = append(out, e.EventType)
	}
	return out
}

type fakeIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: map[string]string{}}
}

func (f *fakeIdempotency) ClaimIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = idempotencyPending
	return true, nil
}

func (f *fakeIdempotency) GetIdempotencyKey(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}

func (f *fakeIdempotency) SetIdempotencyKey(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = value
	return nil
}

func (f *fakeIdempotency) ReleaseIdempotencyKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

var errUnavailable = errors.New("connection refused")

func float(v float64) *float64 { return &v }
func str(v string) *string       { return &v }

func productInput(name, category string, price float64, stock int) *ProductInput {
	images := []string{"/images/" + name + ".jpg"}
	return &ProductInput{
		Name:        str(name),
		Description: str("Description of " + name),
		Price:       float(price),
		Images:      &images,
		Category:    str(category),
		Brand:       str("Acme"),
		Stock:       &stock,
	}
}

func createProduct(t *testing.T, svc *CatalogService, in *ProductInput) *models.Product {
	t.Helper()
	p, err := svc.CreateProduct(context.Background(), adminID, in)
	require.NoError(t, err)
	return p
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   "Jane Doe",
		Address:    "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func orderRequest(items ...OrderItemRequest) *PlaceOrderRequest {
	return &PlaceOrderRequest{
		OrderItems:      items,
		ShippingAddress: validAddress(),
		PaymentMethod:   models.PaymentStripe,
	}
}

type fixture struct {
	repo      *memstore.Store
	catalog   *CatalogService
	orders    *OrderService
	publisher *fakePublisher
	idem      *fakeIdempotency
}

func newFixture() *fixture {
	repo := memstore.New()
	pub := &fakePublisher{}
	idem := newFakeIdempotency()
	return &fixture{
		repo:      repo,
		catalog:   NewCatalogService(repo, pub),
		orders:    NewOrderService(repo, idem, pub, time.Hour),
		publisher: pub,
		idem:      idem,
	}
}
