package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
)

// Notification is the durable mirror of a feed entry. The Redis feed is the
// user-visible source of truth; this row backs cross-device catch-up.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;not null;default:'default'"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Link      *string                `gorm:"column:link"`
	Icon      *string                `gorm:"column:icon"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
