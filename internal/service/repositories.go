package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// ProductRepository is implemented by store.Store and memstore.Store.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	ModifyProduct(ctx context.Context, id string, fn func(p *models.Product) error) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error)
	ProductFacets(ctx context.Context) (categories, brands []string, err error)
	TopProducts(ctx context.Context, limit int) ([]models.Product, error)
	AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error)
}

type OrderRepository interface {
	PlaceOrder(ctx context.Context, order *models.Order, prepare store.PrepareOrderFunc) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, f models.OrderFilter, page models.PageRequest) ([]models.Order, int, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderHistoryEntry, error)
}

type AuditRepository interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordOrderEvent(ctx context.Context, entry *models.OrderHistoryEntry) (bool, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ModifyUser(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
	ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int, error)
}

// Repository is the full persistence surface wired in main.
type Repository interface {
	ProductRepository
	OrderRepository
	AuditRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}

// IdempotencyStore is implemented by redisclient.Client.
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	GetIdempotencyKey(ctx context.Context, key string) (string, error)
	SetIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// EventPublisher is implemented by broker.EventPublisher.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
	PublishProductReviewed(ctx context.Context, event *models.ProductReviewedEvent) error
}

// notFoundOr maps store.ErrNotFound to a NotFound error with msg and wraps
// anything else as internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}
