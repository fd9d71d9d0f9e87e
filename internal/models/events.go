package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeProductReviewed    = "PRODUCT_REVIEWED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published on every order state change
type OrderEvent struct {
	BaseEvent
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	Status         string          `json:"status"`
	TotalPrice     float64         `json:"total_price"`
	IsPaid         bool            `json:"is_paid"`
	IsDelivered    bool            `json:"is_delivered"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Items          []OrderItemData `json:"items,omitempty"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ProductReviewedEvent published when a review changes a product rating
type ProductReviewedEvent struct {
	BaseEvent
	ProductID  string  `json:"product_id"`
	UserID     string  `json:"user_id"`
	Rating     int     `json:"rating"`
	NewAverage float64 `json:"new_average"`
	NumReviews int     `json:"num_reviews"`
}
