// internal/services/events.go
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tokosakti/toko-backend/internal/models"
)

// Event is the closed set of lifecycle events the storefront emits. Each kind
// carries its own payload type; there is no loosely-typed catch-all record.
type Event interface {
	Kind() models.EventKind
	// TargetUser is the user the event concerns, or nil for broadcast.
	TargetUser() *uuid.UUID
	Payload() models.JSONB
}

// EventSink receives lifecycle events and fans them out (storage, pub/sub,
// email). The order/cart/auth services only depend on this interface.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

type OrderPlacedEvent struct {
	OrderID   uuid.UUID
	OrderCode string
	UserID    uuid.UUID
	AmountDue float64
	ItemCount int
}

func (e OrderPlacedEvent) Kind() models.EventKind { return models.EventOrderPlaced }
func (e OrderPlacedEvent) TargetUser() *uuid.UUID { return nil } // admins watch the feed
func (e OrderPlacedEvent) Payload() models.JSONB {
	return models.JSONB{
		"order_id":   e.OrderID.String(),
		"order_code": e.OrderCode,
		"user_id":    e.UserID.String(),
		"amount_due": e.AmountDue,
		"item_count": e.ItemCount,
	}
}

type PaymentCompletedEvent struct {
	OrderID   uuid.UUID
	OrderCode string
	UserID    uuid.UUID
	AmountDue float64
}

func (e PaymentCompletedEvent) Kind() models.EventKind { return models.EventPaymentCompleted }
func (e PaymentCompletedEvent) TargetUser() *uuid.UUID { return &e.UserID }
func (e PaymentCompletedEvent) Payload() models.JSONB {
	return models.JSONB{
		"order_id":   e.OrderID.String(),
		"order_code": e.OrderCode,
		"user_id":    e.UserID.String(),
		"amount_due": e.AmountDue,
	}
}

type ItemAddedToCartEvent struct {
	UserID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

func (e ItemAddedToCartEvent) Kind() models.EventKind { return models.EventItemAddedToCart }
func (e ItemAddedToCartEvent) TargetUser() *uuid.UUID { return &e.UserID }
func (e ItemAddedToCartEvent) Payload() models.JSONB {
	return models.JSONB{
		"user_id":      e.UserID.String(),
		"product_id":   e.ProductID.String(),
		"product_name": e.ProductName,
		"quantity":     e.Quantity,
	}
}

type ItemLikedEvent struct {
	UserID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
}

func (e ItemLikedEvent) Kind() models.EventKind { return models.EventItemLiked }
func (e ItemLikedEvent) TargetUser() *uuid.UUID { return nil }
func (e ItemLikedEvent) Payload() models.JSONB {
	return models.JSONB{
		"user_id":      e.UserID.String(),
		"product_id":   e.ProductID.String(),
		"product_name": e.ProductName,
	}
}

type UserRegisteredEvent struct {
	UserID   uuid.UUID
	Username string
}

func (e UserRegisteredEvent) Kind() models.EventKind { return models.EventUserRegistered }
func (e UserRegisteredEvent) TargetUser() *uuid.UUID { return nil }
func (e UserRegisteredEvent) Payload() models.JSONB {
	return models.JSONB{
		"user_id":  e.UserID.String(),
		"username": e.Username,
	}
}
