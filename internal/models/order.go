// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a transaksi: an immutable snapshot of a cart at checkout time.
// Totals are fixed at creation and never recomputed from live catalog prices.
// Orders are never deleted; cancellation is a status, not a row removal.
type Order struct {
	BaseModel
	Code            string      `json:"code" gorm:"uniqueIndex;size:40;not null"`
	UserID          uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20);default:'awaiting_payment';index"`
	PaymentMethod   string      `json:"payment_method" gorm:"size:50;not null"`
	ShippingAddress string      `json:"shipping_address" gorm:"type:text;not null"`
	PaymentProofKey string      `json:"payment_proof_key,omitempty" gorm:"size:255"`
	PaymentDeadline time.Time   `json:"payment_deadline" gorm:"not null"`
	GrossTotal      float64     `json:"gross_total" gorm:"type:decimal(14,2);not null"`
	TotalSavings    float64     `json:"total_savings" gorm:"type:decimal(14,2);not null"`
	AmountDue       float64     `json:"amount_due" gorm:"type:decimal(14,2);not null"`
	PaidAt          *time.Time  `json:"paid_at"`
	ProcessingAt    *time.Time  `json:"processing_at"`
	CompletedAt     *time.Time  `json:"completed_at"`

	// Relationships
	User  User        `json:"-" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem captures a line at checkout time: name, code and prices are
// copied from the product so later catalog edits never change order history.
type OrderItem struct {
	BaseModel
	OrderID             uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID           uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	Name                string    `json:"name" gorm:"size:255;not null"`
	Code                string    `json:"code" gorm:"size:50;not null"`
	UnitPrice           float64   `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	DiscountedUnitPrice float64   `json:"discounted_unit_price" gorm:"type:decimal(12,2);not null"`
	DiscountPercent     int       `json:"discount_percent" gorm:"not null"`
	Quantity            int       `json:"quantity" gorm:"not null"`
	Subtotal            float64   `json:"subtotal" gorm:"type:decimal(14,2);not null"`
}

// IsExpired is a read-time predicate only; it never mutates status. An order
// past its deadline still reads as awaiting payment in storage until the
// expiry sweep (or a user action) transitions it.
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status.IsEntry() && now.After(o.PaymentDeadline)
}

// CanBePaid reports whether a payment proof may still be submitted.
func (o *Order) CanBePaid(now time.Time) bool {
	return o.Status.IsEntry() && !o.IsExpired(now)
}
