// Package memstore is an in-process implementation of the repositories,
// selected with DATABASE_URL=memory and used by the service and API tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Store struct {
	mu        sync.Mutex
	products  map[string]*models.Product
	orders    map[string]*models.Order
	users     map[string]*models.User
	history   map[string][]models.OrderHistoryEntry
	processed map[string]bool
	historyID int64
	// seq orders rows created within the same clock tick
	seq int64
	now func() time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]*models.Product),
		orders:    make(map[string]*models.Order),
		users:     make(map[string]*models.User),
		history:   make(map[string][]models.OrderHistoryEntry),
		processed: make(map[string]bool),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// tick returns a strictly increasing timestamp.
func (s *Store) tick() time.Time {
	s.seq++
	return s.now().Add(time.Duration(s.seq) * time.Microsecond)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) DestroyAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]*models.Product)
	s.orders = make(map[string]*models.Order)
	s.users = make(map[string]*models.User)
	s.history = make(map[string][]models.OrderHistoryEntry)
	s.processed = make(map[string]bool)
	return nil
}

func copyProduct(p *models.Product) models.Product {
	c := *p
	c.Images = append(pq.StringArray{}, p.Images...)
	c.Features = append(pq.StringArray{}, p.Features...)
	c.Tags = append(pq.StringArray{}, p.Tags...)
	if p.Specifications != nil {
		c.Specifications = make(models.Specifications, len(p.Specifications))
		for k, v := range p.Specifications {
			c.Specifications[k] = v
		}
	}
	if p.SalePrice != nil {
		v := *p.SalePrice
		c.SalePrice = &v
	}
	if p.Weight != nil {
		v := *p.Weight
		c.Weight = &v
	}
	if p.Dimensions != nil {
		d := *p.Dimensions
		c.Dimensions = &d
	}
	c.Reviews = append([]models.Review(nil), p.Reviews...)
	return c
}

func copyOrder(o *models.Order) models.Order {
	c := *o
	c.Items = append([]models.OrderItem{}, o.Items...)
	if o.PaymentResult != nil {
		r := *o.PaymentResult
		c.PaymentResult = &r
	}
	return c
}

func copyUser(u *models.User) models.User {
	c := *u
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return c
}

// Products

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return store.ErrDuplicate
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.tick()
	p.CreatedAt, p.UpdatedAt = now, now

	c := copyProduct(p)
	c.Reviews = nil
	s.products[p.ID] = &c
	return nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyProduct(p)
	if c.Reviews == nil {
		c.Reviews = []models.Review{}
	}
	return &c, nil
}

func (s *Store) ModifyProduct(ctx context.Context, id string, fn func(p *models.Product) error) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyProduct(existing)
	if err := fn(&c); err != nil {
		return nil, err
	}
	for otherID, other := range s.products {
		if otherID != id && other.SKU == c.SKU {
			return nil, store.ErrDuplicate
		}
	}

	c.ID = id
	c.Rating = existing.Rating
	c.NumReviews = existing.NumReviews
	c.Reviews = existing.Reviews
	c.CreatedAt = existing.CreatedAt
	c.CreatedBy = existing.CreatedBy
	c.UpdatedAt = s.tick()
	s.products[id] = &c

	out := copyProduct(&c)
	if out.Reviews == nil {
		out.Reviews = []models.Review{}
	}
	return &out, nil
}

func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = s.tick()
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Product
	for _, p := range s.products {
		if matchesProduct(p, f) {
			c := copyProduct(p)
			c.Reviews = nil
			matched = append(matched, c)
		}
	}
	sortProducts(matched, f.Sort)
	return paginate(matched, page), len(matched), nil
}

func matchesProduct(p *models.Product, f models.ProductFilter) bool {
	if !p.IsActive {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			return false
		}
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if brand := strings.ToLower(strings.TrimSpace(f.Brand)); brand != "" && !strings.Contains(strings.ToLower(p.Brand), brand) {
		return false
	}
	price := p.CurrentPrice()
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.Featured && !p.IsFeatured {
		return false
	}
	return true
}

func sortProducts(ps []models.Product, key string) {
	newest := func(a, b models.Product) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}

	var less func(a, b models.Product) bool
	switch key {
	case models.SortPriceAsc:
		less = func(a, b models.Product) bool {
			if a.CurrentPrice() != b.CurrentPrice() {
				return a.CurrentPrice() < b.CurrentPrice()
			}
			return newest(a, b)
		}
	case models.SortPriceDesc:
		less = func(a, b models.Product) bool {
			if a.CurrentPrice() != b.CurrentPrice() {
				return a.CurrentPrice() > b.CurrentPrice()
			}
			return newest(a, b)
		}
	case models.SortRating:
		less = func(a, b models.Product) bool {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.NumReviews != b.NumReviews {
				return a.NumReviews > b.NumReviews
			}
			return a.ID < b.ID
		}
	case models.SortOldest:
		less = func(a, b models.Product) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	case models.SortNameAsc:
		less = func(a, b models.Product) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		}
	case models.SortNameDesc:
		less = func(a, b models.Product) bool {
			if a.Name != b.Name {
				return a.Name > b.Name
			}
			return a.ID < b.ID
		}
	default:
		less = newest
	}

	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}

func paginate[T any](rows []T, page models.PageRequest) []T {
	start := page.Offset()
	if start < 0 || start >= len(rows) || page.Limit < 1 {
		return []T{}
	}
	end := start + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (s *Store) ProductFacets(ctx context.Context) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := map[string]bool{}
	brands := map[string]bool{}
	for _, p := range s.products {
		if p.IsActive {
			cats[p.Category] = true
			brands[p.Brand] = true
		}
	}
	return sortedKeys(cats), sortedKeys(brands), nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	ps, _, err := s.ListProducts(ctx, models.ProductFilter{Sort: models.SortRating}, models.PageRequest{Page: 1, Limit: limit})
	return ps, err
}

func (s *Store) AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || !p.IsActive {
		return nil, store.ErrNotFound
	}
	for _, r := range p.Reviews {
		if r.UserID == review.UserID {
			return nil, store.ErrDuplicate
		}
	}

	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.ProductID = productID
	review.CreatedAt = s.tick()

	p.Reviews = append(p.Reviews, *review)
	models.ApplyReviewStats(p)
	p.UpdatedAt = s.tick()

	c := copyProduct(p)
	return &c, nil
}

// Orders

func (s *Store) PlaceOrder(ctx context.Context, order *models.Order, prepare store.PrepareOrderFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantities := store.AggregateQuantities(order.Items)
	locked := make(map[string]models.Product, len(quantities))
	for id := range quantities {
		if p, ok := s.products[id]; ok {
			locked[id] = copyProduct(p)
		}
	}

	if err := prepare(locked); err != nil {
		return err
	}

	for id, qty := range quantities {
		p := s.products[id]
		if p == nil || p.Stock < qty {
			avail, name := 0, ""
			if p != nil {
				avail, name = p.Stock, p.Name
			}
			return &store.InsufficientStockError{ProductID: id, Name: name, Available: avail}
		}
	}
	for id, qty := range quantities {
		s.products[id].Stock -= qty
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	now := s.tick()
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	models.FinalizeOrderTotals(order)

	c := copyOrder(order)
	s.orders[order.ID] = &c
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyOrder(o)
	return &c, nil
}

func (s *Store) UpdateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.orders[o.ID]
	if !ok {
		return store.ErrNotFound
	}
	models.FinalizeOrderTotals(o)
	o.UpdatedAt = s.tick()

	c := copyOrder(o)
	c.Items = existing.Items
	c.UserID = existing.UserID
	c.CreatedAt = existing.CreatedAt
	s.orders[o.ID] = &c
	return nil
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter, page models.PageRequest) ([]models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Order
	for _, o := range s.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.IsPaid != nil && o.IsPaid != *f.IsPaid {
			continue
		}
		if f.IsDelivered != nil && o.IsDelivered != *f.IsDelivered {
			continue
		}
		matched = append(matched, copyOrder(o))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, page), len(matched), nil
}

func (s *Store) GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderHistoryEntry{}, s.history[orderID]...), nil
}

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[eventID], nil
}

func (s *Store) RecordOrderEvent(ctx context.Context, entry *models.OrderHistoryEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processed[entry.EventID] {
		return false, nil
	}
	s.processed[entry.EventID] = true
	s.historyID++
	entry.ID = s.historyID
	s.history[entry.OrderID] = append(s.history[entry.OrderID], *entry)
	return true, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.tick()
	u.CreatedAt, u.UpdatedAt = now, now

	c := copyUser(u)
	s.users[u.ID] = &c
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ModifyUser(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyUser(existing)
	if err := fn(&c); err != nil {
		return nil, err
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == c.Email {
			return nil, store.ErrDuplicate
		}
	}

	c.ID = id
	c.LastLogin = existing.LastLogin
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.tick()
	s.users[id] = &c

	out := copyUser(&c)
	return &out, nil
}

func (s *Store) RecordLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	t := at
	u.LastLogin = &t
	return nil
}

func (s *Store) ListUsers(ctx context.Context, page models.PageRequest) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, copyUser(u))
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})
	return paginate(all, page), len(all), nil
}
