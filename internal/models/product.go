// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null"`
	Slug string `json:"slug" gorm:"uniqueIndex;size:100;not null"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

// Product is a catalog item (barang). Stock is mutated only by the order
// lifecycle engine: decremented at checkout, incremented on cancellation.
type Product struct {
	BaseModel
	Name            string         `json:"name" gorm:"size:255;not null"`
	Code            string         `json:"code" gorm:"uniqueIndex;size:50;not null"`
	Description     string         `json:"description" gorm:"type:text"`
	CategoryID      *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	Stock           int            `json:"stock" gorm:"not null;default:0"`
	Price           float64        `json:"price" gorm:"type:decimal(12,2);not null"`
	DiscountPercent int            `json:"discount_percent" gorm:"not null;default:0"`
	IsVisible       bool           `json:"is_visible" gorm:"default:true;index"`
	Images          pq.StringArray `json:"images" gorm:"type:text[]"`
	LikeCount       int64          `json:"like_count" gorm:"default:0"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}
