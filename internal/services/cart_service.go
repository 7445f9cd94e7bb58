// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tokosakti/toko-backend/internal/models"
	"github.com/tokosakti/toko-backend/internal/pricing"
)

// CartService manages keranjang lines. Stock is never checked here; it only
// becomes authoritative at checkout.
type CartService struct {
	db        *gorm.DB
	eventSink EventSink
}

// CartLineView is a cart line joined with the product's current price and
// discount. It is a live view, not a snapshot: figures may differ from what
// checkout eventually locks in.
type CartLineView struct {
	ID                  uuid.UUID `json:"id"`
	ProductID           uuid.UUID `json:"product_id"`
	Name                string    `json:"name"`
	Code                string    `json:"code"`
	UnitPrice           float64   `json:"unit_price"`
	DiscountedUnitPrice float64   `json:"discounted_unit_price"`
	DiscountPercent     int       `json:"discount_percent"`
	Quantity            int       `json:"quantity"`
	Subtotal            float64   `json:"subtotal"`
	IsVisible           bool      `json:"is_visible"`
}

type CartView struct {
	Items        []CartLineView `json:"items"`
	GrossTotal   float64        `json:"gross_total"`
	TotalSavings float64        `json:"total_savings"`
	AmountDue    float64        `json:"amount_due"`
}

func NewCartService(db *gorm.DB, eventSink EventSink) *CartService {
	return &CartService{
		db:        db,
		eventSink: eventSink,
	}
}

// Add puts qty of a product into the caller's cart. A second add of the same
// product increments the existing line instead of creating a duplicate.
func (s *CartService) Add(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !product.IsVisible {
		return nil, ErrProductUnavailable
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error

	switch {
	case err == nil:
		item.Quantity += qty
		if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("database error: %w", err)
	}

	if s.eventSink != nil {
		event := ItemAddedToCartEvent{
			UserID:      userID,
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    qty,
		}
		if err := s.eventSink.Publish(ctx, event); err != nil {
			logrus.WithError(err).Warn("Failed to publish item-added-to-cart event")
		}
	}

	return &item, nil
}

// SetQuantity replaces a line's quantity. Lines belonging to other users read
// as forbidden, not as missing.
func (s *CartService) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var item models.CartItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", lineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if item.UserID != userID {
		return nil, ErrForbidden
	}

	item.Quantity = qty
	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return &item, nil
}

// Remove deletes one line. Idempotent: removing an absent or foreign line is
// a no-op. Cart lines are hard-deleted so the (user, product) unique index
// never trips over consumed rows.
func (s *CartService) Remove(ctx context.Context, userID, lineID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Unscoped().
		Where("id = ? AND user_id = ?", lineID, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear deletes every line the caller owns. Idempotent.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// View returns the caller's cart joined with current product pricing.
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	view := &CartView{Items: make([]CartLineView, 0, len(items))}
	for _, item := range items {
		line := newCartLineView(item)
		view.Items = append(view.Items, line)

		gross := pricing.Round(item.Product.Price * float64(item.Quantity))
		view.GrossTotal = pricing.Round(view.GrossTotal + gross)
		view.AmountDue = pricing.Round(view.AmountDue + line.Subtotal)
	}
	view.TotalSavings = pricing.Round(view.GrossTotal - view.AmountDue)

	return view, nil
}

func newCartLineView(item models.CartItem) CartLineView {
	discounted := pricing.EffectivePrice(item.Product.Price, item.Product.DiscountPercent)
	return CartLineView{
		ID:                  item.ID,
		ProductID:           item.ProductID,
		Name:                item.Product.Name,
		Code:                item.Product.Code,
		UnitPrice:           item.Product.Price,
		DiscountedUnitPrice: discounted,
		DiscountPercent:     item.Product.DiscountPercent,
		Quantity:            item.Quantity,
		Subtotal:            pricing.Round(discounted * float64(item.Quantity)),
		IsVisible:           item.Product.IsVisible,
	}
}
