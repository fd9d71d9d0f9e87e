package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/validation"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CatalogService manages products and their reviews
type CatalogService struct {
	products  ProductRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewCatalogService(products ProductRepository, publisher EventPublisher) *CatalogService {
	return &CatalogService{
		products:  products,
		publisher: publisher,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// ProductPage is one page of the catalog listing
type ProductPage struct {
	Products   []models.Product
	Pagination models.Pagination
	Filters    models.ProductFacets
}

// ListProducts returns active products matching f with the filter facets.
func (s *CatalogService) ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	products, total, err := s.products.ListProducts(ctx, f, page)
	if err != nil {
		util.RecordError(span, err)
		return nil, apperr.Internal(err)
	}

	categories, brands, err := s.products.ProductFacets(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &ProductPage{
		Products:   products,
		Pagination: models.NewPagination(page, total),
		Filters:    models.ProductFacets{Categories: categories, Brands: brands},
	}, nil
}

// GetProduct returns an active product with its reviews
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct", attribute.String("product.id", id))
	defer span.End()

	p, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	if !p.IsActive {
		return nil, apperr.NotFound("Product is not available")
	}
	return p, nil
}

// ProductInput carries create and partial update fields. Nil means unset.
type ProductInput struct {
	SKU            *string            `json:"sku"`
	Name           *string            `json:"name"`
	Description    *string            `json:"description"`
	Price          *float64           `json:"price"`
	SalePrice      *float64           `json:"salePrice"`
	Images         *[]string          `json:"images"`
	Category       *string            `json:"category"`
	Brand          *string            `json:"brand"`
	Stock          *int               `json:"stock"`
	Weight         *float64           `json:"weight"`
	Dimensions     *models.Dimensions `json:"dimensions"`
	Features       *[]string          `json:"features"`
	Specifications map[string]string  `json:"specifications"`
	Tags           *[]string          `json:"tags"`
	IsActive       *bool              `json:"isActive"`
	IsFeatured     *bool              `json:"isFeatured"`
}

func (in *ProductInput) applyTo(p *models.Product) {
	if in.SKU != nil {
		p.SKU = *in.SKU
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.SalePrice != nil {
		// a zero sale price clears the sale
		if *in.SalePrice == 0 {
			p.SalePrice = nil
		} else {
			v := *in.SalePrice
			p.SalePrice = &v
		}
	}
	if in.Images != nil {
		p.Images = pq.StringArray(*in.Images)
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Weight != nil {
		v := *in.Weight
		p.Weight = &v
	}
	if in.Dimensions != nil {
		d := *in.Dimensions
		p.Dimensions = &d
	}
	if in.Features != nil {
		p.Features = pq.StringArray(*in.Features)
	}
	if in.Specifications != nil {
		p.Specifications = models.Specifications(in.Specifications)
	}
	if in.Tags != nil {
		p.Tags = pq.StringArray(*in.Tags)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
}

// CreateProduct adds a product to the catalog. Admin only.
func (s *CatalogService) CreateProduct(ctx context.Context, caller *auth.Identity, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	p := &models.Product{IsActive: true, CreatedBy: caller.AccountID}
	in.applyTo(p)
	if strings.TrimSpace(p.SKU) == "" {
		p.SKU = GenerateSKU(s.now())
	}
	p.Normalize()

	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Product with this SKU already exists")
		}
		util.RecordError(span, err)
		return nil, apperr.Internal(err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

const skuAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateSKU builds PRD-<last 6 digits of unix millis>-<3 random chars>.
func GenerateSKU(now time.Time) string {
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = skuAlphabet[rand.Intn(len(skuAlphabet))]
	}
	return fmt.Sprintf("PRD-%06d-%s", now.UnixMilli()%1000000, suffix)
}

// UpdateProduct merges in onto the stored product and re-validates the
// result. Admin only.
func (s *CatalogService) UpdateProduct(ctx context.Context, caller *auth.Identity, id string, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct", attribute.String("product.id", id))
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	p, err := s.products.ModifyProduct(ctx, id, func(p *models.Product) error {
		in.applyTo(p)
		p.Normalize()
		return validation.Struct(p)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Product with this SKU already exists")
		}
		util.RecordError(span, err)
		return nil, notFoundOr(err, "Product not found")
	}

	s.logger.Info("Product updated", zap.String("product_id", p.ID))
	return p, nil
}

// SoftDeleteProduct hides the product from the catalog. Admin only.
func (s *CatalogService) SoftDeleteProduct(ctx context.Context, caller *auth.Identity, id string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.SoftDeleteProduct", attribute.String("product.id", id))
	defer span.End()

	if err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}

	if err := s.products.DeactivateProduct(ctx, id); err != nil {
		return notFoundOr(err, "Product not found")
	}

	s.logger.Info("Product deactivated", zap.String("product_id", id))
	return nil
}

// ReviewInput is the review payload
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=500"`
}

// AddReview records the caller's review and refreshes the rating.
func (s *CatalogService) AddReview(ctx context.Context, caller *auth.Identity, productID string, in *ReviewInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddReview", attribute.String("product.id", productID))
	defer span.End()

	if caller == nil {
		return nil, apperr.Unauthorized("Not authorized, no token")
	}
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:  caller.AccountID,
		Name:    caller.Name,
		Rating:  in.Rating,
		Comment: in.Comment,
	}

	p, err := s.products.AddReview(ctx, productID, review)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Product already reviewed")
		}
		util.RecordError(span, err)
		return nil, notFoundOr(err, "Product not found")
	}

	util.ReviewsAddedTotal.Inc()
	s.logger.Info("Review added",
		zap.String("product_id", productID),
		zap.Float64("rating", p.Rating),
		zap.Int("num_reviews", p.NumReviews))

	if s.publisher != nil {
		event := &models.ProductReviewedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeProductReviewed,
				Timestamp: s.now().UTC(),
			},
			ProductID:  productID,
			UserID:     caller.AccountID,
			Rating:     in.Rating,
			NewAverage: p.Rating,
			NumReviews: p.NumReviews,
		}
		if err := s.publisher.PublishProductReviewed(ctx, event); err != nil {
			s.logger.Error("Failed to publish ProductReviewed event", zap.Error(err))
		}
	}
	return p, nil
}

// TopProducts returns the best rated active products
func (s *CatalogService) TopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.TopProducts")
	defer span.End()

	if limit < 1 {
		limit = models.DefaultTopLimit
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}

	products, err := s.products.TopProducts(ctx, limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return products, nil
}
