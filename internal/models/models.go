package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Product categories
const (
	CategoryElectronics = "Electronics"
	CategoryClothing    = "Clothing"
	CategoryBooks       = "Books"
	CategoryHomeGarden  = "Home & Garden"
	CategorySports      = "Sports"
	CategoryBeauty      = "Beauty"
	CategoryToys        = "Toys"
	CategoryAutomotive  = "Automotive"
	CategoryOther       = "Other"
)

// Categories is the closed set of product categories.
var Categories = []string{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHomeGarden,
	CategorySports,
	CategoryBeauty,
	CategoryToys,
	CategoryAutomotive,
	CategoryOther,
}

// Payment methods
const (
	PaymentPayPal         = "PayPal"
	PaymentStripe         = "Stripe"
	PaymentCreditCard     = "Credit Card"
	PaymentCashOnDelivery = "Cash on Delivery"
)

var PaymentMethods = []string{PaymentPayPal, PaymentStripe, PaymentCreditCard, PaymentCashOnDelivery}

// Order statuses
const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var Roles = []string{RoleUser, RoleAdmin}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidCategory(c string) bool      { return contains(Categories, c) }
func IsValidPaymentMethod(m string) bool { return contains(PaymentMethods, m) }
func IsValidOrderStatus(s string) bool   { return contains(OrderStatuses, s) }
func IsValidRole(r string) bool          { return contains(Roles, r) }

// Product represents a product in the catalog
type Product struct {
	ID             string         `db:"id" json:"id"`
	SKU            string         `db:"sku" json:"sku" validate:"required,max=64"`
	Name           string         `db:"name" json:"name" validate:"required,max=100"`
	Description    string         `db:"description" json:"description" validate:"min=10,max=2000"`
	Price          float64        `db:"price" json:"price" validate:"gte=0"`
	SalePrice      *float64       `db:"sale_price" json:"salePrice,omitempty" validate:"omitempty,gte=0"`
	Images         pq.StringArray `db:"images" json:"images" validate:"min=1,dive,required"`
	Category       string         `db:"category" json:"category" validate:"category"`
	Brand          string         `db:"brand" json:"brand" validate:"required"`
	Stock          int            `db:"stock" json:"stock" validate:"gte=0"`
	Weight         *float64       `db:"weight" json:"weight,omitempty" validate:"omitempty,gte=0"`
	Dimensions     *Dimensions    `db:"dimensions" json:"dimensions,omitempty"`
	Features       pq.StringArray `db:"features" json:"features"`
	Specifications Specifications `db:"specifications" json:"specifications"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	Rating         float64        `db:"rating" json:"rating"`
	NumReviews     int            `db:"num_reviews" json:"numReviews"`
	IsActive       bool           `db:"is_active" json:"isActive"`
	IsFeatured     bool           `db:"is_featured" json:"isFeatured"`
	CreatedBy      string         `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
	Reviews        []Review       `db:"-" json:"reviews,omitempty"`
}

// MarshalJSON adds the derived pricing fields to the product payload.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		CurrentPrice       float64 `json:"currentPrice"`
		DiscountPercentage int     `json:"discountPercentage"`
	}{
		plain:              plain(p),
		CurrentPrice:       p.CurrentPrice(),
		DiscountPercentage: p.DiscountPercentage(),
	})
}

// CurrentPrice is the sale price when it applies, the regular price otherwise.
func (p *Product) CurrentPrice() float64 {
	return CurrentPrice(p.Price, p.SalePrice)
}

func (p *Product) DiscountPercentage() int {
	return DiscountPercentage(p.Price, p.SalePrice)
}

// Normalize applies the field transforms done before every product write.
func (p *Product) Normalize() {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Brand = strings.TrimSpace(p.Brand)
	for i, f := range p.Features {
		p.Features[i] = strings.TrimSpace(f)
	}
	for i, t := range p.Tags {
		p.Tags[i] = strings.ToLower(strings.TrimSpace(t))
	}
	if p.Images == nil {
		p.Images = pq.StringArray{}
	}
	if p.Features == nil {
		p.Features = pq.StringArray{}
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	if p.Specifications == nil {
		p.Specifications = Specifications{}
	}
}

// Dimensions of a product package
type Dimensions struct {
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

func (d Dimensions) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *Dimensions) Scan(src interface{}) error {
	return scanJSON(src, d)
}

// Specifications is a free-form key/value map stored as JSONB
type Specifications map[string]string

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(s))
}

func (s *Specifications) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Review is embedded in a product; one per reviewer.
type Review struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"-"`
	UserID    string    `db:"user_id" json:"user"`
	Name      string    `db:"name" json:"name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Order represents a customer order
type Order struct {
	ID              string          `db:"id" json:"id"`
	UserID          string          `db:"user_id" json:"user"`
	Items           []OrderItem     `db:"-" json:"orderItems"`
	ShippingAddress ShippingAddress `db:"shipping_address" json:"shippingAddress"`
	PaymentMethod   string          `db:"payment_method" json:"paymentMethod"`
	PaymentResult   *PaymentResult  `db:"payment_result" json:"paymentResult,omitempty"`
	ItemsPrice      float64         `db:"items_price" json:"itemsPrice"`
	TaxPrice        float64         `db:"tax_price" json:"taxPrice"`
	ShippingPrice   float64         `db:"shipping_price" json:"shippingPrice"`
	TotalPrice      float64         `db:"total_price" json:"totalPrice"`
	IsPaid          bool            `db:"is_paid" json:"isPaid"`
	PaidAt          *time.Time      `db:"paid_at" json:"paidAt,omitempty"`
	IsDelivered     bool            `db:"is_delivered" json:"isDelivered"`
	DeliveredAt     *time.Time      `db:"delivered_at" json:"deliveredAt,omitempty"`
	Status          string          `db:"status" json:"status"`
	TrackingNumber  string          `db:"tracking_number" json:"trackingNumber,omitempty"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// OrderNumber is the display number derived from the trailing id segment.
func (o *Order) OrderNumber() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "ORD-" + strings.ToUpper(id)
}

func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		OrderNumber string `json:"orderNumber"`
	}{
		plain:       plain(o),
		OrderNumber: o.OrderNumber(),
	})
}

// OrderItem is a line item snapshot taken at order time
type OrderItem struct {
	ID        string  `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"-"`
	ProductID string  `db:"product_id" json:"product"`
	Name      string  `db:"name" json:"name"`
	Image     string  `db:"image" json:"image"`
	Price     float64 `db:"price" json:"price"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Position  int     `db:"position" json:"-"`
}

// ShippingAddress is copied onto the order at checkout
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// Trim strips surrounding whitespace from every field.
func (a *ShippingAddress) Trim() {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	a.Phone = strings.TrimSpace(a.Phone)
}

func (a ShippingAddress) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ShippingAddress) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// PaymentResult is the opaque confirmation payload from the payment provider
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

func (r PaymentResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *PaymentResult) Scan(src interface{}) error {
	return scanJSON(src, r)
}

// OrderHistoryEntry is one audited order event
type OrderHistoryEntry struct {
	ID         int64     `db:"id" json:"id"`
	OrderID    string    `db:"order_id" json:"orderId"`
	EventID    string    `db:"event_id" json:"eventId"`
	EventType  string    `db:"event_type" json:"eventType"`
	Status     string    `db:"status" json:"status"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
}

// User represents an account
type User struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	Avatar       string     `db:"avatar" json:"avatar,omitempty"`
	Address      *Address   `db:"address" json:"address,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Address is the profile address of an account
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Merge overlays the non-empty fields of other.
func (a *Address) Merge(other Address) {
	if other.Street != "" {
		a.Street = other.Street
	}
	if other.City != "" {
		a.City = other.City
	}
	if other.State != "" {
		a.State = other.State
	}
	if other.PostalCode != "" {
		a.PostalCode = other.PostalCode
	}
	if other.Country != "" {
		a.Country = other.Country
	}
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(src interface{}) error {
	return scanJSON(src, a)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported JSON column type")
	}
}
