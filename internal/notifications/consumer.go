package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/metrics"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/idempotency"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/payloads"
)

const feedConsumer = "notifications-worker"

// Consumer watches order/request domain events and appends customer-facing
// feed entries.
type Consumer struct {
	feed         Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	metrics      *metrics.ConsumerMetrics
}

// NewConsumer builds the feed consumer. Metrics may be nil.
func NewConsumer(feed Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger, cm *metrics.ConsumerMetrics) (*Consumer, error) {
	if feed == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		feed:         feed,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		metrics:      cm,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		start := time.Now()
		eventType := msg.Attributes["event_type"]
		result := c.process(ctx, msg)
		c.metrics.ObserveDuration(eventType, time.Since(start))
		if result.nack {
			c.metrics.IncFailure(eventType)
			msg.Nack()
			return
		}
		c.metrics.IncSuccess(eventType)
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, feedConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	userID, entry, err := entryForEvent(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, feedConsumer, eventID)
		return processResult{nack: true}
	}
	if userID == uuid.Nil {
		c.logg.Info(logCtx, "skipping event without a customer target")
		return processResult{ack: true}
	}

	// event id doubles as the feed entry id: redelivery dedupes in the feed
	entry.ID = eventID
	entry.CreatedAt = envelope.OccurredAt

	if _, err := c.feed.Append(ctx, userID, entry); err != nil {
		c.logg.Error(logCtx, "feed append failed", err)
		_ = c.idempotency.Delete(ctx, feedConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func entryForEvent(eventType enums.OutboxEventType, data json.RawMessage) (uuid.UUID, Entry, error) {
	switch eventType {
	case enums.EventOrderPlaced:
		var p payloads.OrderPlacedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeOrder,
			Title:   "Order placed",
			Message: fmt.Sprintf("We received your order %s. We'll start preparing it shortly.", p.OrderNumber),
			Link:    "/orders/" + p.OrderNumber,
		}, nil

	case enums.EventOrderStatusChanged:
		var p payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeOrder,
			Title:   "Order update",
			Message: fmt.Sprintf("Order %s is now %s.", p.OrderNumber, statusLabel(string(p.ToStatus))),
			Link:    "/orders/" + p.OrderNumber,
		}, nil

	case enums.EventOrderCancelled:
		var p payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeCancellation,
			Title:   "Order cancelled",
			Message: fmt.Sprintf("Order %s was cancelled.", p.OrderNumber),
			Link:    "/orders/" + p.OrderNumber,
		}, nil

	case enums.EventPaymentConfirmed:
		var p payloads.PaymentConfirmedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeOrder,
			Title:   "Payment confirmed",
			Message: fmt.Sprintf("We confirmed your payment for order %s.", p.OrderNumber),
			Link:    "/orders/" + p.OrderNumber,
		}, nil

	case enums.EventRequestSubmitted:
		var p payloads.RequestSubmittedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeRequest,
			Title:   "Request received",
			Message: fmt.Sprintf("We received your %s request %s.", kindLabel(p.Kind), p.RequestNumber),
			Link:    "/requests/" + p.RequestNumber,
		}, nil

	case enums.EventRequestQuoted:
		var p payloads.RequestQuotedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeRequest,
			Title:   "Quote ready",
			Message: fmt.Sprintf("Your %s request %s has been quoted.", kindLabel(p.Kind), p.RequestNumber),
			Link:    "/requests/" + p.RequestNumber,
		}, nil

	case enums.EventRequestStatusChanged:
		var p payloads.RequestStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeRequest,
			Title:   "Request update",
			Message: fmt.Sprintf("Request %s is now %s.", p.RequestNumber, statusLabel(string(p.ToStatus))),
			Link:    "/requests/" + p.RequestNumber,
		}, nil

	case enums.EventRequestDeclined:
		var p payloads.RequestDeclinedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return uuid.Nil, Entry{}, err
		}
		message := fmt.Sprintf("Request %s was declined.", p.RequestNumber)
		if p.Reason != "" {
			message = fmt.Sprintf("Request %s was declined: %s", p.RequestNumber, p.Reason)
		}
		return p.UserID, Entry{
			Type:    enums.NotificationTypeCancellation,
			Title:   "Request declined",
			Message: message,
			Link:    "/requests/" + p.RequestNumber,
		}, nil

	default:
		return uuid.Nil, Entry{}, nil
	}
}

func statusLabel(status string) string {
	switch status {
	case string(enums.OrderStatusReadyForDelivery):
		return "ready for delivery"
	case string(enums.OrderStatusOutForDelivery):
		return "out for delivery"
	case string(enums.OrderStatusReadyForPickup):
		return "ready for pickup"
	default:
		return status
	}
}

func kindLabel(kind enums.RequestKind) string {
	switch kind {
	case enums.RequestKindBooking:
		return "event booking"
	case enums.RequestKindSpecial:
		return "special order"
	case enums.RequestKindCustomized:
		return "customized bouquet"
	default:
		return string(kind)
	}
}
