// internal/models/cart.go
package models

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCartQuantityInvalid = errors.New("cart item quantity must be greater than zero")

// CartItem is a keranjang line: one row per (user, product). Repeat adds
// increment the quantity instead of creating a second row.
type CartItem struct {
	BaseModel
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	// Relationships
	User    User    `json:"-" gorm:"foreignKey:UserID"`
	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// BeforeSave rejects non-positive quantities outright; they are never clamped.
func (ci *CartItem) BeforeSave(tx *gorm.DB) error {
	if ci.Quantity < 1 {
		return ErrCartQuantityInvalid
	}
	return nil
}
