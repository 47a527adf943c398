package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
)

// OrderPlacedEvent signals a checkout converted into an order.
type OrderPlacedEvent struct {
	OrderID        uuid.UUID            `json:"orderId"`
	OrderNumber    string               `json:"orderNumber"`
	UserID         uuid.UUID            `json:"userId"`
	DeliveryMethod enums.DeliveryMethod `json:"deliveryMethod"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod"`
	TotalCents     int64                `json:"totalCents"`
	ItemCount      int                  `json:"itemCount"`
}

// OrderStatusChangedEvent is emitted on every admin status transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      uuid.UUID         `json:"userId"`
	FromStatus  enums.OrderStatus `json:"fromStatus"`
	ToStatus    enums.OrderStatus `json:"toStatus"`
	RiderName   string            `json:"riderName,omitempty"`
	RiderPhone  string            `json:"riderPhone,omitempty"`
}

// OrderCancelledEvent is emitted when a customer or admin cancels an order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userId"`
	CancelledAt time.Time `json:"cancelledAt"`
	Reason      string    `json:"reason,omitempty"`
}

// PaymentConfirmedEvent is emitted when admin verifies a GCash receipt or
// other prepayment.
type PaymentConfirmedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	UserID        uuid.UUID           `json:"userId"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	AmountCents   int64               `json:"amountCents"`
}

// RequestSubmittedEvent signals a new booking, special order, or customized
// bouquet request.
type RequestSubmittedEvent struct {
	RequestID     uuid.UUID         `json:"requestId"`
	RequestNumber string            `json:"requestNumber"`
	UserID        uuid.UUID         `json:"userId"`
	Kind          enums.RequestKind `json:"kind"`
}

// RequestQuotedEvent is emitted when the shop prices a request.
type RequestQuotedEvent struct {
	RequestID        uuid.UUID         `json:"requestId"`
	RequestNumber    string            `json:"requestNumber"`
	UserID           uuid.UUID         `json:"userId"`
	Kind             enums.RequestKind `json:"kind"`
	QuotedPriceCents int64             `json:"quotedPriceCents"`
}

// RequestStatusChangedEvent is emitted on request fulfillment transitions.
type RequestStatusChangedEvent struct {
	RequestID     uuid.UUID           `json:"requestId"`
	RequestNumber string              `json:"requestNumber"`
	UserID        uuid.UUID           `json:"userId"`
	Kind          enums.RequestKind   `json:"kind"`
	FromStatus    enums.RequestStatus `json:"fromStatus"`
	ToStatus      enums.RequestStatus `json:"toStatus"`
}

// RequestDeclinedEvent is emitted when the shop declines a request.
type RequestDeclinedEvent struct {
	RequestID     uuid.UUID         `json:"requestId"`
	RequestNumber string            `json:"requestNumber"`
	UserID        uuid.UUID         `json:"userId"`
	Kind          enums.RequestKind `json:"kind"`
	Reason        string            `json:"reason,omitempty"`
}
