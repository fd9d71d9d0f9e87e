package main

import (
	"testing"

	"storefront-service/internal/models"
	"storefront-service/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedProductsAreValid(t *testing.T) {
	skus := map[string]bool{}
	for _, p := range seedProducts {
		p.IsActive = true
		p.Normalize()
		require.NoError(t, validation.Struct(&p), p.Name)
		assert.False(t, skus[p.SKU], "duplicate sku %s", p.SKU)
		skus[p.SKU] = true
	}
}

func TestSeedUsersHaveOneAdmin(t *testing.T) {
	admins := 0
	for _, u := range seedUsers {
		if u.role == models.RoleAdmin {
			admins++
		}
		assert.GreaterOrEqual(t, len(u.password), 6)
	}
	assert.Equal(t, 1, admins)
}
