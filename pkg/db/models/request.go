package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/types"
)

// Request covers the three quote-driven flows: event bookings, special
// orders and customized bouquets. Details holds the kind-specific form
// payload (event type, bouquet preferences, flower list) as submitted.
type Request struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestNumber      string                 `gorm:"column:request_number;not null;uniqueIndex"`
	UserID             uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Kind               enums.RequestKind      `gorm:"column:kind;not null"`
	Status             enums.RequestStatus    `gorm:"column:status;not null;default:'pending'"`
	DeliveryMethod     enums.DeliveryMethod   `gorm:"column:delivery_method;not null"`
	PaymentMethod      enums.PaymentMethod    `gorm:"column:payment_method;not null"`
	PaymentStatus      enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'to_pay'"`
	QuotedPriceCents   *int                   `gorm:"column:quoted_price_cents"`
	EventDate          *time.Time             `gorm:"column:event_date"`
	Details            json.RawMessage        `gorm:"column:details;type:jsonb"`
	ReferenceImageURLs pq.StringArray         `gorm:"column:reference_image_urls;type:text[]"`
	DeliveryAddress    *types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	ReceiptURL         *string                `gorm:"column:receipt_url"`
	DeclineReason      *string                `gorm:"column:decline_reason"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
