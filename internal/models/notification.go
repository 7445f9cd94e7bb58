// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one persisted lifecycle event. Kind is a closed enum; the
// payload shape per kind is defined by the event types in the services
// package, stored here as JSONB for the feed.
type Notification struct {
	BaseModel
	Kind    EventKind  `json:"kind" gorm:"type:varchar(30);not null;index"`
	UserID  *uuid.UUID `json:"user_id" gorm:"type:uuid;index"` // nil = broadcast
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text"`
	Payload JSONB      `json:"payload" gorm:"type:jsonb"`
	ReadAt  *time.Time `json:"read_at"`
}
