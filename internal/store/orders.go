package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = `id, user_id, shipping_address, payment_method, payment_result, items_price,
	tax_price, shipping_price, total_price, is_paid, paid_at, is_delivered, delivered_at,
	status, tracking_number, notes, created_at, updated_at`

const orderItemColumns = `id, order_id, position, product_id, name, image, price, quantity`

// PlaceOrder locks every referenced product, lets prepare build the order
// lines, decrements stock and persists the order in a single transaction.
// order.Items must carry ProductID and Quantity on entry.
func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, prepare PrepareOrderFunc) error {
	quantities := AggregateQuantities(order.Items)
	ids := make([]string, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	// Locks are taken in id order so concurrent checkouts cannot deadlock.
	var rows []models.Product
	err = tx.SelectContext(ctx, &rows,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE",
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock products: %w", mapError(err))
	}

	locked := make(map[string]models.Product, len(rows))
	for _, p := range rows {
		locked[p.ID] = p
	}

	if err := prepare(locked); err != nil {
		return err
	}

	for _, id := range ids {
		qty := quantities[id]
		res, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
			qty, id)
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			p := locked[id]
			return &InsufficientStockError{ProductID: id, Name: p.Name, Available: p.Stock}
		}
	}

	now := time.Now().UTC()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	order.CreatedAt, order.UpdatedAt = now, now
	models.FinalizeOrderTotals(order)

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :user_id, :shipping_address, :payment_method, :payment_result, :items_price,
			:tax_price, :shipping_price, :total_price, :is_paid, :paid_at, :is_delivered, :delivered_at,
			:status, :tracking_number, :notes, :created_at, :updated_at)`, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", mapError(err))
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID
		item.Position = i
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, name, image, price, quantity)
			VALUES (:id, :order_id, :position, :product_id, :name, :image, :price, :quantity)`, item)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// MaxAggregateQuantity caps a per-product sum at the range of the stock
// column, so an oversized request fails the stock check instead of wrapping.
const MaxAggregateQuantity = math.MaxInt32

// AggregateQuantities sums the requested quantity per product, saturating at
// MaxAggregateQuantity.
func AggregateQuantities(items []models.OrderItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		sum := out[item.ProductID]
		if item.Quantity > MaxAggregateQuantity-sum {
			sum = MaxAggregateQuantity
		} else {
			sum += item.Quantity
		}
		out[item.ProductID] = sum
	}
	return out
}

// GetOrderByID retrieves an order with its line items
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, mapError(err))
	}

	items := []models.OrderItem{}
	err = s.db.SelectContext(ctx, &items,
		"SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY position",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	order.Items = items
	return &order, nil
}

// UpdateOrder persists the mutable order fields with totals recomputed.
func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	models.FinalizeOrderTotals(o)
	o.UpdatedAt = time.Now().UTC()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE orders SET
			shipping_address = :shipping_address, payment_method = :payment_method,
			payment_result = :payment_result, items_price = :items_price, tax_price = :tax_price,
			shipping_price = :shipping_price, total_price = :total_price, is_paid = :is_paid,
			paid_at = :paid_at, is_delivered = :is_delivered, delivered_at = :delivered_at,
			status = :status, tracking_number = :tracking_number, notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`, o)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders returns one page of orders, newest first, with line items.
func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter, page models.PageRequest) ([]models.Order, int, error) {
	where, args := buildOrderWhere(f)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", mapError(err))
	}

	query := fmt.Sprintf("SELECT %s FROM orders%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		orderColumns, where, len(args)+1, len(args)+2)

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", mapError(err))
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+orderItemColumns+" FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, position",
		pq.Array(ids))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load order items: %w", err)
	}

	byOrder := make(map[string][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders, total, nil
}

func buildOrderWhere(f models.OrderFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		conds = append(conds, "user_id = "+arg(f.UserID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.IsPaid != nil {
		conds = append(conds, "is_paid = "+arg(*f.IsPaid))
	}
	if f.IsDelivered != nil {
		conds = append(conds, "is_delivered = "+arg(*f.IsDelivered))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetOrderHistory returns the audited events of an order, oldest first.
func (s *Store) GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderHistoryEntry, error) {
	history := []models.OrderHistoryEntry{}
	err := s.db.SelectContext(ctx, &history, `
		SELECT id, order_id, event_id, event_type, status, occurred_at
		FROM order_history WHERE order_id = $1 ORDER BY occurred_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", mapError(err))
	}
	return history, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// RecordOrderEvent marks the event processed and appends the history row
// atomically. It returns false when the event was already recorded.
func (s *Store) RecordOrderEvent(ctx context.Context, entry *models.OrderHistoryEntry) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		entry.EventID, entry.EventType)
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	err = tx.GetContext(ctx, &entry.ID, `
		INSERT INTO order_history (order_id, event_id, event_type, status, occurred_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		entry.OrderID, entry.EventID, entry.EventType, entry.Status, entry.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert order history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit order history: %w", err)
	}
	return true, nil
}
