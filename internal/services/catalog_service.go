// internal/services/catalog_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tokosakti/toko-backend/internal/models"
	"github.com/tokosakti/toko-backend/internal/pricing"
	"github.com/tokosakti/toko-backend/internal/utils"
)

const productCacheTTL = time.Minute

// CatalogService exposes read-only product browsing. Prices shown anywhere
// come from the pricing package; the discounted figure lives on the view
// struct, never written back onto the entity.
type CatalogService struct {
	db        *gorm.DB
	redis     *redis.Client
	eventSink EventSink
}

// ProductView is a product joined with its computed effective price.
type ProductView struct {
	models.Product
	DiscountedPrice float64 `json:"discounted_price"`
}

func NewCatalogService(db *gorm.DB, redisClient *redis.Client, eventSink EventSink) *CatalogService {
	return &CatalogService{
		db:        db,
		redis:     redisClient,
		eventSink: eventSink,
	}
}

// NewProductView computes the effective price for a product.
func NewProductView(product models.Product) ProductView {
	return ProductView{
		Product:         product,
		DiscountedPrice: pricing.EffectivePrice(product.Price, product.DiscountPercent),
	}
}

// GetProduct returns any product regardless of visibility. Internal callers
// only; the HTTP surface goes through GetVisibleProduct.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// GetVisibleProduct returns a customer-facing product view, served from the
// redis cache when available. Hidden products read as unavailable.
func (s *CatalogService) GetVisibleProduct(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	if view := s.cachedProduct(ctx, id); view != nil {
		if !view.IsVisible {
			return nil, ErrProductUnavailable
		}
		return view, nil
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	view := NewProductView(*product)
	s.cacheProduct(ctx, view)

	if !view.IsVisible {
		return nil, ErrProductUnavailable
	}
	return &view, nil
}

// ListVisible returns displayed products with search, category and pagination
// applied. The result is a live view; prices may differ from what a later
// checkout locks in.
func (s *CatalogService) ListVisible(ctx context.Context, params utils.PaginationParams) ([]ProductView, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_visible = ?", true).
		Preload("Category")

	if params.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.code) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, "created_at", "updated_at", "name", "price", "like_count")
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, NewProductView(product))
	}

	return views, total, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// Like bumps the like counter and publishes the item-liked event.
func (s *CatalogService) Like(ctx context.Context, userID, productID uuid.UUID) error {
	view, err := s.GetVisibleProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		return fmt.Errorf("failed to update like count: %w", err)
	}
	s.InvalidateProduct(ctx, productID)

	if s.eventSink != nil {
		event := ItemLikedEvent{
			UserID:      userID,
			ProductID:   productID,
			ProductName: view.Name,
		}
		if err := s.eventSink.Publish(ctx, event); err != nil {
			logrus.WithError(err).Warn("Failed to publish item-liked event")
		}
	}

	return nil
}

// InvalidateProduct drops cached views after a stock or counter mutation.
func (s *CatalogService) InvalidateProduct(ctx context.Context, ids ...uuid.UUID) {
	if s.redis == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate product cache")
	}
}

// Helper methods

func productCacheKey(id uuid.UUID) string {
	return "product:" + id.String()
}

func (s *CatalogService) cachedProduct(ctx context.Context, id uuid.UUID) *ProductView {
	if s.redis == nil {
		return nil
	}

	cached, err := s.redis.Get(ctx, productCacheKey(id)).Result()
	if err != nil {
		return nil
	}

	var view ProductView
	if err := json.Unmarshal([]byte(cached), &view); err != nil {
		return nil
	}
	return &view
}

func (s *CatalogService) cacheProduct(ctx context.Context, view ProductView) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, productCacheKey(view.ID), data, productCacheTTL).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to cache product")
	}
}
