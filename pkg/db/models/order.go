package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/types"
)

// Order is a checked-out storefront order. The delivery address is a frozen
// snapshot, not a reference into the address book.
type Order struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string                 `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus      `gorm:"column:status;not null;default:'pending'"`
	DeliveryMethod   enums.DeliveryMethod   `gorm:"column:delivery_method;not null"`
	PaymentMethod    enums.PaymentMethod    `gorm:"column:payment_method;not null"`
	PaymentStatus    enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'to_pay'"`
	ReceiptURL       *string                `gorm:"column:receipt_url"`
	DeliveryAddress  *types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	DeliveryDate     *time.Time             `gorm:"column:delivery_date"`
	Notes            *string                `gorm:"column:notes"`
	RiderName        *string                `gorm:"column:rider_name"`
	RiderPhone       *string                `gorm:"column:rider_phone"`
	SubtotalCents    int                    `gorm:"column:subtotal_cents;not null;default:0"`
	DeliveryFeeCents int                    `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents       int                    `gorm:"column:total_cents;not null;default:0"`
	Items            []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
