package api

import (
	"net/http"
	"strconv"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	f := models.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		InStock:  c.Query("inStock") == "true",
		Featured: c.Query("featured") == "true",
		Sort:     c.Query("sort"),
	}

	var fields []apperr.FieldError
	var fe *apperr.FieldError
	if f.MinPrice, fe = floatQuery(c, "minPrice"); fe != nil {
		fields = append(fields, *fe)
	}
	if f.MaxPrice, fe = floatQuery(c, "maxPrice"); fe != nil {
		fields = append(fields, *fe)
	}
	if f.MinRating, fe = floatQuery(c, "minRating"); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		respondError(c, apperr.Validation("Validation failed", fields...))
		return
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), f, pageRequest(c, models.DefaultProductLimit))
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "", gin.H{
		"products":   page.Products,
		"pagination": page.Pagination,
		"filters":    page.Filters,
	})
}

func (h *Handler) topProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	products, err := h.catalog.TopProducts(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"product": product})
}

func (h *Handler) createProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), identityFrom(c), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", gin.H{"product": product})
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in service.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), identityFrom(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", gin.H{"product": product})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.SoftDeleteProduct(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *Handler) addReview(c *gin.Context) {
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.catalog.AddReview(c.Request.Context(), identityFrom(c), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review added successfully", gin.H{
		"rating":     product.Rating,
		"numReviews": product.NumReviews,
	})
}
