package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryFee maps a serviced locality to its flat delivery fee. Barangay
// overrides, when present, beat the city-wide row.
type DeliveryFee struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	City      string    `gorm:"column:city;not null;index"`
	Barangay  *string   `gorm:"column:barangay"`
	FeeCents  int       `gorm:"column:fee_cents;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
