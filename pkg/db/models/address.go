package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved address-book entry a customer can pick at checkout.
type Address struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label          string    `gorm:"column:label;not null"`
	RecipientName  string    `gorm:"column:recipient_name;not null"`
	RecipientPhone string    `gorm:"column:recipient_phone;not null"`
	Line1          string    `gorm:"column:line1;not null"`
	Barangay       *string   `gorm:"column:barangay"`
	City           string    `gorm:"column:city;not null"`
	Province       string    `gorm:"column:province;not null"`
	PostalCode     *string   `gorm:"column:postal_code"`
	Landmark       *string   `gorm:"column:landmark"`
	IsDefault      bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
