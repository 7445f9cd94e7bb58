// internal/services/catalog_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosakti/toko-backend/internal/models"
	"github.com/tokosakti/toko-backend/internal/utils"
)

func TestGetVisibleProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	visible := createTestProduct(t, db, "Tepung Terigu", 13000, 20, 15)
	hidden := createTestProduct(t, db, "Produk Arsip", 1000, 0, 0)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).
		Update("is_visible", false).Error)

	catalog := NewCatalogService(db, nil, nil)

	view, err := catalog.GetVisibleProduct(ctx, visible.ID)
	require.NoError(t, err)
	assert.Equal(t, 10400.0, view.DiscountedPrice)

	_, err = catalog.GetVisibleProduct(ctx, hidden.ID)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = catalog.GetVisibleProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListVisibleFiltersAndSearches(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	category := &models.Category{Name: "Sembako", Slug: "sembako"}
	require.NoError(t, db.Create(category).Error)

	inCategory := createTestProduct(t, db, "Beras Pandan Wangi", 85000, 0, 10)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", inCategory.ID).
		Update("category_id", category.ID).Error)
	createTestProduct(t, db, "Sikat Gigi", 7000, 0, 10)
	hidden := createTestProduct(t, db, "Beras Lama", 60000, 0, 10)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).
		Update("is_visible", false).Error)

	catalog := NewCatalogService(db, nil, nil)

	all, total, err := catalog.ListVisible(ctx, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	byCategory, total, err := catalog.ListVisible(ctx, utils.PaginationParams{
		Page: 1, Limit: 10, Category: "sembako",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Beras Pandan Wangi", byCategory[0].Name)

	// Search is case-insensitive and never surfaces hidden products.
	bySearch, total, err := catalog.ListVisible(ctx, utils.PaginationParams{
		Page: 1, Limit: 10, Search: "beras",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bySearch, 1)
	assert.Equal(t, inCategory.ID, bySearch[0].ID)
}

func TestLikeIncrementsAndPublishes(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &memorySink{}

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Kerupuk Udang", 10000, 0, 40)

	catalog := NewCatalogService(db, nil, sink)

	require.NoError(t, catalog.Like(ctx, user.ID, product.ID))
	require.NoError(t, catalog.Like(ctx, user.ID, product.ID))

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, int64(2), after.LikeCount)

	assert.Equal(t, []models.EventKind{models.EventItemLiked, models.EventItemLiked}, sink.kinds())

	hidden := createTestProduct(t, db, "Barang Tersembunyi", 5000, 0, 1)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).
		Update("is_visible", false).Error)
	assert.ErrorIs(t, catalog.Like(ctx, user.ID, hidden.ID), ErrProductUnavailable)
}
