package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const idempotencyPending = "pending"

// OrderService handles order business logic
type OrderService struct {
	orders         OrderRepository
	idempotency    IdempotencyStore
	publisher      EventPublisher
	idempotencyTTL time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service. idempotency and publisher
// may be nil, which disables replay protection and event publishing.
func NewOrderService(
	orders OrderRepository,
	idempotency IdempotencyStore,
	publisher EventPublisher,
	idempotencyTTL time.Duration,
) *OrderService {
	return &OrderService{
		orders:         orders,
		idempotency:    idempotency,
		publisher:      publisher,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrderRequest is the checkout payload
type PlaceOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems" validate:"dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"payment_method"`
	ItemsPrice      float64                `json:"itemsPrice" validate:"gte=0"`
	TaxPrice        float64                `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   float64                `json:"shippingPrice" validate:"gte=0"`
	Notes           string                 `json:"notes" validate:"max=500"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1,max=100000"`
}

// PlaceOrderResult carries the order and whether it was replayed from an
// earlier request with the same idempotency key.
type PlaceOrderResult struct {
	Order    *models.Order
	Replayed bool
}

// PlaceOrder validates the request, then checks and decrements stock and
// persists the order atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, accountID string, req *PlaceOrderRequest, idempotencyKey string) (*PlaceOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder", attribute.String("account.id", accountID))
	defer span.End()

	if len(req.OrderItems) == 0 {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, apperr.Validation("No order items")
	}
	req.ShippingAddress.Trim()
	if err := validation.Struct(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	scopedKey := ""
	if idempotencyKey != "" && s.idempotency != nil {
		scopedKey = accountID + ":" + idempotencyKey
		replay, err := s.claimIdempotencyKey(ctx, accountID, scopedKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			util.OrdersReplayedTotal.Inc()
			return &PlaceOrderResult{Order: replay, Replayed: true}, nil
		}
	}

	order, err := s.placeOrder(ctx, accountID, req)
	if err != nil {
		util.RecordError(span, err)
		if scopedKey != "" {
			if relErr := s.idempotency.ReleaseIdempotencyKey(ctx, scopedKey); relErr != nil {
				s.logger.Warn("Failed to release idempotency key", zap.String("key", scopedKey), zap.Error(relErr))
			}
		}
		return nil, err
	}

	if scopedKey != "" {
		if err := s.idempotency.SetIdempotencyKey(ctx, scopedKey, order.ID, s.idempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("key", scopedKey), zap.Error(err))
		}
	}

	util.OrdersPlacedTotal.Inc()
	util.OrderRevenueTotal.Add(order.TotalPrice)
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("account_id", accountID),
		zap.Float64("total_price", order.TotalPrice))

	s.publishOrderEvent(ctx, models.EventTypeOrderCreated, order)
	return &PlaceOrderResult{Order: order}, nil
}

// claimIdempotencyKey returns the earlier order when the key was already
// used. Redis failures disable replay protection for this request only.
func (s *OrderService) claimIdempotencyKey(ctx context.Context, accountID, key string) (*models.Order, error) {
	claimed, err := s.idempotency.ClaimIdempotencyKey(ctx, key, s.idempotencyTTL)
	if err != nil {
		s.logger.Warn("Idempotency store unavailable", zap.Error(err))
		return nil, nil
	}
	if claimed {
		return nil, nil
	}

	orderID, err := s.idempotency.GetIdempotencyKey(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if orderID == "" || orderID == idempotencyPending {
		return nil, apperr.Conflict("An order with this idempotency key is already being processed")
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if order.UserID != accountID {
		return nil, apperr.Conflict("Idempotency key already used")
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.String("order_id", order.ID))
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, accountID string, req *PlaceOrderRequest) (*models.Order, error) {
	order := &models.Order{
		UserID:          accountID,
		Items:           make([]models.OrderItem, 0, len(req.OrderItems)),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		ItemsPrice:      req.ItemsPrice,
		TaxPrice:        req.TaxPrice,
		ShippingPrice:   req.ShippingPrice,
		Status:          models.OrderStatusPending,
		Notes:           req.Notes,
	}
	for _, item := range req.OrderItems {
		order.Items = append(order.Items, models.OrderItem{ProductID: item.Product, Quantity: item.Quantity})
	}

	start := time.Now()
	err := s.orders.PlaceOrder(ctx, order, snapshotItems(order))
	util.OrderPlacementLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		var appErr *apperr.Error
		var stockErr *store.InsufficientStockError
		switch {
		case errors.As(err, &appErr):
			util.OrdersFailedTotal.WithLabelValues(appErr.Kind.String()).Inc()
			return nil, appErr
		case errors.As(err, &stockErr):
			util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, apperr.Conflict(insufficientStockMessage(stockErr.Name, stockErr.Available))
		case errors.Is(err, store.ErrNotFound):
			util.OrdersFailedTotal.WithLabelValues("not_found").Inc()
			return nil, apperr.NotFound("Product not found")
		default:
			util.OrdersFailedTotal.WithLabelValues("internal").Inc()
			return nil, apperr.Internal(fmt.Errorf("failed to place order: %w", err))
		}
	}
	return order, nil
}

// snapshotItems validates every line against the locked products and copies
// name, first image and current price onto it.
func snapshotItems(order *models.Order) store.PrepareOrderFunc {
	return func(locked map[string]models.Product) error {
		for _, item := range order.Items {
			p, ok := locked[item.ProductID]
			if !ok || !p.IsActive {
				return apperr.NotFound("Product not found: " + item.ProductID)
			}
		}

		for id, qty := range store.AggregateQuantities(order.Items) {
			p := locked[id]
			if qty > p.Stock {
				return apperr.Conflict(insufficientStockMessage(p.Name, p.Stock))
			}
		}

		for i := range order.Items {
			p := locked[order.Items[i].ProductID]
			order.Items[i].Name = p.Name
			order.Items[i].Price = p.CurrentPrice()
			if len(p.Images) > 0 {
				order.Items[i].Image = p.Images[0]
			}
		}
		return nil
	}
}

func insufficientStockMessage(name string, available int) string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d", name, available)
}

// MarkPaid records the payment confirmation. Only the order owner may pay.
func (s *OrderService) MarkPaid(ctx context.Context, caller *auth.Identity, orderID string, result *models.PaymentResult) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.MarkPaid", attribute.String("order.id", orderID))
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if err := auth.RequireOwner(caller, order.UserID, "update this order"); err != nil {
		return nil, err
	}

	now := s.now()
	order.IsPaid = true
	order.PaidAt = &now
	order.Status = models.OrderStatusProcessing
	order.PaymentResult = result

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		return nil, notFoundOr(err, "Order not found")
	}

	util.OrdersPaidTotal.Inc()
	util.OrderStatusChangesTotal.WithLabelValues(order.Status).Inc()
	s.logger.Info("Order paid", zap.String("order_id", order.ID))

	s.publishOrderEvent(ctx, models.EventTypeOrderPaid, order)
	return order, nil
}

// MarkDelivered sets the delivered flags and status. Admin only.
func (s *OrderService) MarkDelivered(ctx context.Context, caller *auth.Identity, orderID, trackingNumber string) (*models.Order, error) {
	return s.SetStatus(ctx, caller, orderID, &SetStatusRequest{
		Status:         models.OrderStatusDelivered,
		TrackingNumber: trackingNumber,
	})
}

// SetStatusRequest is the admin status update payload
type SetStatusRequest struct {
	Status         string `json:"status" validate:"order_status"`
	TrackingNumber string `json:"trackingNumber" validate:"max=100"`
	Notes          string `json:"notes" validate:"max=500"`
}

// SetStatus moves the order to any status of the enum. Delivered also sets
// isDelivered and deliveredAt.
func (s *OrderService) SetStatus(ctx context.Context, caller *auth.Identity, orderID string, req *SetStatusRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetStatus",
		attribute.String("order.id", orderID),
		attribute.String("order.status", req.Status))
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}

	order.Status = req.Status
	if req.Status == models.OrderStatusDelivered && !order.IsDelivered {
		now := s.now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}
	if req.TrackingNumber != "" {
		order.TrackingNumber = req.TrackingNumber
	}
	if req.Notes != "" {
		order.Notes = req.Notes
	}

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		util.RecordError(span, err)
		return nil, notFoundOr(err, "Order not found")
	}

	util.OrderStatusChangesTotal.WithLabelValues(order.Status).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status))

	s.publishOrderEvent(ctx, models.EventTypeOrderStatusChanged, order)
	return order, nil
}

// GetOrder returns the order to its owner or an admin
func (s *OrderService) GetOrder(ctx context.Context, caller *auth.Identity, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found")
	}
	if err := auth.RequireOwnerOrAdmin(caller, order.UserID, "view this order"); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists all orders, newest first. Admin only.
func (s *OrderService) ListOrders(ctx context.Context, caller *auth.Identity, f models.OrderFilter, page models.PageRequest) ([]models.Order, models.Pagination, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, models.Pagination{}, err
	}
	if f.Status != "" && !models.IsValidOrderStatus(f.Status) {
		return nil, models.Pagination{}, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "status", Message: "Please select a valid order status"})
	}
	return s.list(ctx, f, page)
}

// ListOwnOrders lists the caller's orders, newest first
func (s *OrderService) ListOwnOrders(ctx context.Context, accountID string, page models.PageRequest) ([]models.Order, models.Pagination, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOwnOrders")
	defer span.End()

	return s.list(ctx, models.OrderFilter{UserID: accountID}, page)
}

func (s *OrderService) list(ctx context.Context, f models.OrderFilter, page models.PageRequest) ([]models.Order, models.Pagination, error) {
	orders, total, err := s.orders.ListOrders(ctx, f, page)
	if err != nil {
		return nil, models.Pagination{}, apperr.Internal(err)
	}
	return orders, models.NewPagination(page, total), nil
}

// OrderHistory returns the audited event trail of an order
func (s *OrderService) OrderHistory(ctx context.Context, caller *auth.Identity, orderID string) ([]models.OrderHistoryEntry, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.OrderHistory")
	defer span.End()

	if _, err := s.GetOrder(ctx, caller, orderID); err != nil {
		return nil, err
	}
	history, err := s.orders.GetOrderHistory(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return history, nil
}

func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}

	items := make([]models.OrderItemData, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: s.now(),
		},
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status,
		TotalPrice:     order.TotalPrice,
		IsPaid:         order.IsPaid,
		IsDelivered:    order.IsDelivered,
		TrackingNumber: order.TrackingNumber,
		Items:          items,
	}

	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}
