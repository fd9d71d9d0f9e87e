package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

const productColumns = `id, sku, name, description, price, sale_price, images, category, brand,
	stock, weight, dimensions, features, specifications, tags, rating, num_reviews,
	is_active, is_featured, created_by, created_at, updated_at`

// currentPriceExpr mirrors models.CurrentPrice in SQL.
const currentPriceExpr = `(CASE WHEN sale_price IS NOT NULL AND sale_price > 0 AND sale_price < price
	THEN sale_price ELSE price END)`

// CreateProduct inserts a product. A taken SKU yields ErrDuplicate.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (:id, :sku, :name, :description, :price, :sale_price, :images, :category, :brand,
			:stock, :weight, :dimensions, :features, :specifications, :tags, :rating, :num_reviews,
			:is_active, :is_featured, :created_by, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", mapError(err))
	}
	return nil
}

// GetProductByID loads a product with its reviews, active or not.
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, mapError(err))
	}

	reviews, err := s.productReviews(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews
	return &product, nil
}

type queryer interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (s *Store) productReviews(ctx context.Context, q queryer, productID string) ([]models.Review, error) {
	reviews := []models.Review{}
	err := q.SelectContext(ctx, &reviews, `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM product_reviews WHERE product_id = $1 ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return reviews, nil
}

const updateProductQuery = `
	UPDATE products SET
		sku = :sku, name = :name, description = :description, price = :price,
		sale_price = :sale_price, images = :images, category = :category, brand = :brand,
		stock = :stock, weight = :weight, dimensions = :dimensions, features = :features,
		specifications = :specifications, tags = :tags, is_active = :is_active,
		is_featured = :is_featured, updated_at = :updated_at
	WHERE id = :id`

// ModifyProduct locks the product row, lets fn edit it and writes the
// editable fields back in the same transaction, so a checkout committing
// meanwhile cannot have its stock decrement overwritten. Review statistics
// are owned by AddReview and are left untouched. An error from fn is
// returned as is.
func (s *Store) ModifyProduct(ctx context.Context, id string, fn func(p *models.Product) error) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", mapError(err))
	}

	if err := fn(&product); err != nil {
		return nil, err
	}
	product.ID = id
	product.UpdatedAt = time.Now().UTC()

	if _, err := tx.NamedExecContext(ctx, updateProductQuery, &product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", mapError(err))
	}

	reviews, err := s.productReviews(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return &product, nil
}

// DeactivateProduct hides a product without touching any other column.
func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns one page of active products matching f and the
// total match count.
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error) {
	where, args := buildProductWhere(f)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, productOrderBy(f.Sort), len(args)+1, len(args)+2)

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// buildProductWhere renders the AND-combined filter as a WHERE clause with
// positional arguments. Only active products are ever listed.
func buildProductWhere(f models.ProductFilter) (string, []interface{}) {
	conds := []string{"is_active = TRUE"}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		p := arg("%" + escapeLike(search) + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s OR brand ILIKE %[1]s)", p))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+arg(f.Category))
	}
	if brand := strings.TrimSpace(f.Brand); brand != "" {
		conds = append(conds, "brand ILIKE "+arg("%"+escapeLike(brand)+"%"))
	}
	if f.MinPrice != nil {
		conds = append(conds, currentPriceExpr+" >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, currentPriceExpr+" <= "+arg(*f.MaxPrice))
	}
	if f.MinRating != nil {
		conds = append(conds, "rating >= "+arg(*f.MinRating))
	}
	if f.InStock {
		conds = append(conds, "stock > 0")
	}
	if f.Featured {
		conds = append(conds, "is_featured = TRUE")
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func productOrderBy(sort string) string {
	switch sort {
	case models.SortPriceAsc:
		return currentPriceExpr + " ASC, created_at DESC, id"
	case models.SortPriceDesc:
		return currentPriceExpr + " DESC, created_at DESC, id"
	case models.SortRating:
		return "rating DESC, num_reviews DESC, id"
	case models.SortOldest:
		return "created_at ASC, id"
	case models.SortNameAsc:
		return "name ASC, id"
	case models.SortNameDesc:
		return "name DESC, id"
	default:
		return "created_at DESC, id"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ProductFacets returns the distinct categories and brands of active products.
func (s *Store) ProductFacets(ctx context.Context) ([]string, []string, error) {
	categories := []string{}
	if err := s.db.SelectContext(ctx, &categories,
		"SELECT DISTINCT category FROM products WHERE is_active = TRUE ORDER BY category"); err != nil {
		return nil, nil, fmt.Errorf("failed to load categories: %w", err)
	}

	brands := []string{}
	if err := s.db.SelectContext(ctx, &brands,
		"SELECT DISTINCT brand FROM products WHERE is_active = TRUE ORDER BY brand"); err != nil {
		return nil, nil, fmt.Errorf("failed to load brands: %w", err)
	}
	return categories, brands, nil
}

// TopProducts returns the best rated active products.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE is_active = TRUE ORDER BY rating DESC, num_reviews DESC, id LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	return products, nil
}

// AddReview appends a review and recomputes rating and numReviews in one
// transaction. The product row is locked so concurrent reviews serialize.
// A second review by the same user yields ErrDuplicate; an inactive product
// yields ErrNotFound.
func (s *Store) AddReview(ctx context.Context, productID string, review *models.Review) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE", productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", mapError(err))
	}
	if !product.IsActive {
		return nil, ErrNotFound
	}

	reviews, err := s.productReviews(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	for _, r := range reviews {
		if r.UserID == review.UserID {
			return nil, ErrDuplicate
		}
	}

	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.ProductID = productID
	review.CreatedAt = time.Now().UTC()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO product_reviews (id, product_id, user_id, name, rating, comment, created_at)
		VALUES (:id, :product_id, :user_id, :name, :rating, :comment, :created_at)`, review)
	if err != nil {
		return nil, fmt.Errorf("failed to insert review: %w", mapError(err))
	}

	product.Reviews = append(reviews, *review)
	models.ApplyReviewStats(&product)
	product.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		"UPDATE products SET rating = $1, num_reviews = $2, updated_at = $3 WHERE id = $4",
		product.Rating, product.NumReviews, product.UpdatedAt, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update review stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}
	return &product, nil
}
