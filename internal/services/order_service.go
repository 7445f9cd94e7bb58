// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tokosakti/toko-backend/internal/config"
	"github.com/tokosakti/toko-backend/internal/models"
	"github.com/tokosakti/toko-backend/internal/pricing"
	"github.com/tokosakti/toko-backend/internal/utils"
)

// OrderService is the order lifecycle engine: it converts carts into
// immutable order snapshots, reserves stock, and guards every status
// transition. Product stock is mutated nowhere else.
type OrderService struct {
	db        *gorm.DB
	catalog   *CatalogService
	storage   *StorageService
	eventSink EventSink
	clock     Clock
	cfg       config.CheckoutConfig
}

type CheckoutRequest struct {
	PaymentMethod   string `json:"metodePembayaran" validate:"required,payment_method"`
	ShippingAddress string `json:"alamatPengiriman" validate:"required,min=10,max=500"`
}

// CheckoutPreviewLine is one cart line as it would appear on the order,
// flagged when the requested quantity exceeds current stock.
type CheckoutPreviewLine struct {
	CartLineView
	Stock    int  `json:"stock"`
	Oversold bool `json:"oversold"`
}

type CheckoutPreview struct {
	Lines        []CheckoutPreviewLine `json:"lines"`
	GrossTotal   float64               `json:"gross_total"`
	TotalSavings float64               `json:"total_savings"`
	AmountDue    float64               `json:"amount_due"`
	CanCheckout  bool                  `json:"can_checkout"`
}

func NewOrderService(db *gorm.DB, catalog *CatalogService, storage *StorageService, eventSink EventSink, clock Clock, cfg config.CheckoutConfig) *OrderService {
	if clock == nil {
		clock = SystemClock()
	}
	return &OrderService{
		db:        db,
		catalog:   catalog,
		storage:   storage,
		eventSink: eventSink,
		clock:     clock,
		cfg:       cfg,
	}
}

// forUpdate adds a row lock on Postgres. SQLite (used by the test suite) has
// no row-level locks; its single writer already serializes the transaction.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// PreviewCheckout renders the caller's cart as it would be ordered: hidden
// products are dropped, every remaining line is priced and checked against
// current stock. Nothing is persisted.
func (s *OrderService) PreviewCheckout(ctx context.Context, userID uuid.UUID) (*CheckoutPreview, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	preview := &CheckoutPreview{CanCheckout: true}
	for _, item := range items {
		if !item.Product.IsVisible {
			continue
		}

		line := CheckoutPreviewLine{
			CartLineView: newCartLineView(item),
			Stock:        item.Product.Stock,
			Oversold:     item.Quantity > item.Product.Stock,
		}
		if line.Oversold {
			preview.CanCheckout = false
		}

		preview.Lines = append(preview.Lines, line)
		preview.GrossTotal = pricing.Round(preview.GrossTotal + pricing.Round(item.Product.Price*float64(item.Quantity)))
		preview.AmountDue = pricing.Round(preview.AmountDue + line.Subtotal)
	}
	preview.TotalSavings = pricing.Round(preview.GrossTotal - preview.AmountDue)

	if len(preview.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	return preview, nil
}

// Checkout converts the caller's cart into an order in one transaction:
// verify stock under row locks, snapshot the lines at current discounted
// prices, create the order, decrement stock, and consume the cart. Any guard
// failure rolls the whole thing back; no partial order or partial decrement
// is ever visible.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var order *models.Order
	var productIDs []uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).
			Order("created_at ASC").
			Find(&items).Error; err != nil {
			return fmt.Errorf("failed to fetch cart: %w", err)
		}

		if len(items) == 0 {
			return ErrEmptyCart
		}

		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}

		// Lock the stock rows for the duration of the check-and-decrement so
		// two concurrent checkouts cannot both pass the guard.
		var products []models.Product
		if err := forUpdate(tx).Where("id IN ?", ids).Find(&products).Error; err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		productsByID := make(map[uuid.UUID]models.Product, len(products))
		for _, product := range products {
			productsByID[product.ID] = product
		}

		var orderItems []models.OrderItem
		var grossTotal, amountDue float64
		for _, item := range items {
			product, ok := productsByID[item.ProductID]
			if !ok || !product.IsVisible {
				// Product vanished or was hidden since it was carted.
				continue
			}

			if item.Quantity > product.Stock {
				return &InsufficientStockError{
					ProductName: product.Name,
					Requested:   item.Quantity,
					Available:   product.Stock,
				}
			}

			discounted := pricing.EffectivePrice(product.Price, product.DiscountPercent)
			subtotal := pricing.Round(discounted * float64(item.Quantity))

			orderItems = append(orderItems, models.OrderItem{
				ProductID:           product.ID,
				Name:                product.Name,
				Code:                product.Code,
				UnitPrice:           product.Price,
				DiscountedUnitPrice: discounted,
				DiscountPercent:     product.DiscountPercent,
				Quantity:            item.Quantity,
				Subtotal:            subtotal,
			})

			grossTotal = pricing.Round(grossTotal + pricing.Round(product.Price*float64(item.Quantity)))
			amountDue = pricing.Round(amountDue + subtotal)
			productIDs = append(productIDs, product.ID)
		}

		if len(orderItems) == 0 {
			return ErrEmptyCart
		}

		code, err := utils.GenerateOrderCode(now)
		if err != nil {
			return fmt.Errorf("failed to generate order code: %w", err)
		}

		order = &models.Order{
			Code:            code,
			UserID:          userID,
			Status:          models.OrderStatusAwaitingPayment,
			PaymentMethod:   req.PaymentMethod,
			ShippingAddress: req.ShippingAddress,
			PaymentDeadline: now.Add(time.Duration(s.cfg.PaymentDeadlineHours) * time.Hour),
			GrossTotal:      grossTotal,
			AmountDue:       amountDue,
			TotalSavings:    pricing.Round(grossTotal - amountDue),
			Items:           orderItems,
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, orderItem := range orderItems {
			if err := tx.Model(&models.Product{}).Where("id = ?", orderItem.ProductID).
				UpdateColumn("stock", gorm.Expr("stock - ?", orderItem.Quantity)).Error; err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
		}

		// The cart is consumed whole, including lines whose product was
		// hidden since they were added. Hard delete, same as CartService.
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.catalog != nil {
		s.catalog.InvalidateProduct(ctx, productIDs...)
	}

	if s.eventSink != nil {
		event := OrderPlacedEvent{
			OrderID:   order.ID,
			OrderCode: order.Code,
			UserID:    userID,
			AmountDue: order.AmountDue,
			ItemCount: len(order.Items),
		}
		if err := s.eventSink.Publish(ctx, event); err != nil {
			logrus.WithError(err).Warn("Failed to publish order-placed event")
		}
	}

	return order, nil
}

// UploadPaymentProof stores the transfer proof and moves the order to paid.
// A later upload replaces the previous proof. Guarded by CanBePaid: expired
// or already-advanced orders are rejected.
func (s *OrderService) UploadPaymentProof(ctx context.Context, userID, orderID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.UserID != userID {
		return nil, ErrForbidden
	}

	now := s.clock.Now()
	if !order.CanBePaid(now) {
		return nil, ErrOrderNotPayable
	}

	result, err := s.storage.UploadPaymentProof(file, header)
	if err != nil {
		return nil, err
	}

	previousProof := order.PaymentProofKey

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Order
		if err := forUpdate(tx).First(&locked, "id = ?", orderID).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}

		// Re-check under the lock: a concurrent cancel or sweep may have won.
		if !locked.CanBePaid(now) {
			return ErrOrderNotPayable
		}

		return tx.Model(&locked).Updates(map[string]interface{}{
			"status":            models.OrderStatusPaid,
			"payment_proof_key": result.Key,
			"paid_at":           now,
		}).Error
	})

	if err != nil {
		// The order did not advance; do not leave the orphaned upload behind.
		if delErr := s.storage.DeleteFile(result.Key); delErr != nil {
			logrus.WithError(delErr).Warn("Failed to delete orphaned payment proof")
		}
		return nil, err
	}

	if previousProof != "" {
		if err := s.storage.DeleteFile(previousProof); err != nil {
			logrus.WithError(err).Warn("Failed to delete replaced payment proof")
		}
	}

	order.Status = models.OrderStatusPaid
	order.PaymentProofKey = result.Key
	order.PaidAt = &now

	if s.eventSink != nil {
		event := PaymentCompletedEvent{
			OrderID:   order.ID,
			OrderCode: order.Code,
			UserID:    order.UserID,
			AmountDue: order.AmountDue,
		}
		if err := s.eventSink.Publish(ctx, event); err != nil {
			logrus.WithError(err).Warn("Failed to publish payment-completed event")
		}
	}

	return &order, nil
}

// Cancel moves an entry-state order to cancelled and returns every
// snapshotted quantity to product stock; status change and restocks commit
// together or not at all.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	var productIDs []uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Order
		if err := forUpdate(tx).Preload("Items").First(&locked, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if locked.UserID != userID {
			return ErrForbidden
		}

		if !locked.Status.IsEntry() {
			return ErrOrderNotCancelable
		}

		ids, err := s.restockItems(tx, locked.Items)
		if err != nil {
			return err
		}
		productIDs = ids

		if err := tx.Model(&locked).Update("status", models.OrderStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		locked.Status = models.OrderStatusCancelled
		order = &locked
		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.catalog != nil {
		s.catalog.InvalidateProduct(ctx, productIDs...)
	}

	return order, nil
}

// restockItems returns each snapshotted quantity to its product. Runs inside
// the caller's transaction.
func (s *OrderService) restockItems(tx *gorm.DB, items []models.OrderItem) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
			return nil, fmt.Errorf("failed to restock product: %w", err)
		}
		ids = append(ids, item.ProductID)
	}
	return ids, nil
}

// StartProcessing is the admin action that acknowledges a paid order.
func (s *OrderService) StartProcessing(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusPaid, models.OrderStatusProcessing, "processing_at")
}

// Complete closes out an order that finished processing.
func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusProcessing, models.OrderStatusCompleted, "completed_at")
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus, stampColumn string) (*models.Order, error) {
	now := s.clock.Now()
	var order *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Order
		if err := forUpdate(tx).Preload("Items").First(&locked, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if locked.Status != from {
			return ErrInvalidTransition
		}

		if err := tx.Model(&locked).Updates(map[string]interface{}{
			"status":    to,
			stampColumn: now,
		}).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		locked.Status = to
		order = &locked
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder returns one order with its snapshot. Admins may read any order;
// customers only their own.
func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, isAdmin bool) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}

	return &order, nil
}

// PaymentProofURL returns a viewable link to the uploaded proof, subject to
// the same visibility rules as GetOrder.
func (s *OrderService) PaymentProofURL(ctx context.Context, userID uuid.UUID, orderID uuid.UUID, isAdmin bool) (string, error) {
	order, err := s.GetOrder(ctx, userID, orderID, isAdmin)
	if err != nil {
		return "", err
	}

	if order.PaymentProofKey == "" {
		return "", ErrProofNotUploaded
	}

	url, err := s.storage.ProofURL(order.PaymentProofKey)
	if err != nil {
		return "", err
	}
	return url, nil
}

// ListUserOrders returns the caller's order history, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id = ?", userID).
		Preload("Items")

	return s.listOrders(query, params)
}

// ListAllOrders is the admin transaction listing, optionally filtered by
// status.
func (s *OrderService) ListAllOrders(ctx context.Context, status models.OrderStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	return s.listOrders(query, params)
}

func (s *OrderService) listOrders(query *gorm.DB, params utils.PaginationParams) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params, "created_at", "updated_at", "amount_due", "payment_deadline", "status")
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// ExpireOverdue cancels and restocks every awaiting-payment order whose
// deadline has passed. The source system never restored that stock; the
// sweep closes the gap explicitly. Each order expires in its own
// transaction so one conflict does not block the rest of the batch.
func (s *OrderService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.clock.Now()

	var overdueIDs []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status IN ? AND payment_deadline < ?",
			[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusAwaitingPayment}, now).
		Pluck("id", &overdueIDs).Error; err != nil {
		return 0, fmt.Errorf("failed to find overdue orders: %w", err)
	}

	expired := 0
	for _, orderID := range overdueIDs {
		var productIDs []uuid.UUID

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var locked models.Order
			if err := forUpdate(tx).Preload("Items").First(&locked, "id = ?", orderID).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}

			if !locked.IsExpired(now) {
				// A proof upload won the race; leave it alone.
				return nil
			}

			ids, err := s.restockItems(tx, locked.Items)
			if err != nil {
				return err
			}
			productIDs = ids

			if err := tx.Model(&locked).Update("status", models.OrderStatusCancelled).Error; err != nil {
				return fmt.Errorf("failed to expire order: %w", err)
			}

			expired++
			return nil
		})

		if err != nil {
			logrus.WithError(err).WithField("order_id", orderID).Warn("Failed to expire order")
			continue
		}

		if s.catalog != nil {
			s.catalog.InvalidateProduct(ctx, productIDs...)
		}
	}

	return expired, nil
}

// RunExpirySweep ticks ExpireOverdue until the context is cancelled.
func (s *OrderService) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := s.ExpireOverdue(ctx)
			if err != nil {
				logrus.WithError(err).Error("Expiry sweep failed")
				continue
			}
			if expired > 0 {
				logrus.WithField("expired", expired).Info("Expired overdue orders")
			}
		}
	}
}
