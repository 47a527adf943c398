package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/internal/tracking"
	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/payloads"
	"github.com/mariellesantos/floracart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order operations for customers and shop staff.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error)
	Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	GetAny(ctx context.Context, orderNumber string) (*models.Order, error)
	Track(ctx context.Context, userID uuid.UUID, orderNumber string) (*tracking.Timeline, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderNumber string, reason string) error
	ConfirmReceipt(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error)
	ConfirmPayment(ctx context.Context, orderNumber string, actorID uuid.UUID) (*models.Order, error)
}

// StatusUpdateInput carries an admin fulfillment transition.
type StatusUpdateInput struct {
	OrderNumber string
	ToStatus    enums.OrderStatus
	RiderName   *string
	RiderPhone  *string
	ActorID     uuid.UUID
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, logg: logg}, nil
}

// NumberFor builds a human-readable order number tied to the buyer.
func NumberFor(userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", enums.RequestKindOrder.NumberPrefix(), strings.ToUpper(userID.String()[:8]), at.Unix())
}

// allowedTransitions maps each status to the transitions staff may take.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:          {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing:       {enums.OrderStatusReadyForDelivery, enums.OrderStatusReadyForPickup, enums.OrderStatusCancelled},
	enums.OrderStatusReadyForDelivery: {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusOutForDelivery:   {enums.OrderStatusDelivered},
	enums.OrderStatusReadyForPickup:   {enums.OrderStatusClaimed, enums.OrderStatusCancelled},
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return paginate(rows, limit)
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return paginate(rows, limit)
}

func paginate(rows []models.Order, limit int) ([]models.Order, string, error) {
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	order, err := s.GetAny(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetAny(ctx context.Context, orderNumber string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Track projects the order into its customer-facing timeline.
func (s *service) Track(ctx context.Context, userID uuid.UUID, orderNumber string) (*tracking.Timeline, error) {
	order, err := s.Get(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	timeline := tracking.Project(tracking.Record{
		Status:         string(order.Status),
		DeliveryMethod: order.DeliveryMethod,
		PaymentMethod:  order.PaymentMethod,
		PaymentStatus:  order.PaymentStatus,
		CreatedAt:      order.CreatedAt,
	}, enums.RequestKindOrder)
	return &timeline, nil
}

// Cancel lets the customer back out while the shop has not started preparing.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, orderNumber string, reason string) error {
	order, err := s.Get(ctx, userID, orderNumber)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.Status = enums.OrderStatusCancelled
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				CancelledAt: time.Now().UTC(),
				Reason:      reason,
			},
		})
	})
}

// ConfirmReceipt lets the customer mark the order received, closing the
// timeline at delivered or claimed depending on the delivery method.
func (s *service) ConfirmReceipt(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	order, err := s.Get(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}

	var toStatus enums.OrderStatus
	switch order.Status {
	case enums.OrderStatusOutForDelivery:
		toStatus = enums.OrderStatusDelivered
	case enums.OrderStatusReadyForPickup:
		toStatus = enums.OrderStatusClaimed
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting receipt confirmation")
	}

	fromStatus := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.Status = toStatus
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm receipt")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				FromStatus:  fromStatus,
				ToStatus:    toStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus applies one staff fulfillment transition and queues the
// matching notification event.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Order, error) {
	if !input.ToStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.GetAny(ctx, input.OrderNumber)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already finalized")
	}
	if !transitionAllowed(order.Status, input.ToStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, input.ToStatus))
	}
	if input.ToStatus == enums.OrderStatusReadyForDelivery && order.DeliveryMethod != enums.DeliveryMethodDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pickup orders cannot enter the delivery chain")
	}
	if input.ToStatus == enums.OrderStatusReadyForPickup && order.DeliveryMethod != enums.DeliveryMethodPickup {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery orders cannot enter the pickup chain")
	}

	fromStatus := order.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.Status = input.ToStatus
		if input.RiderName != nil {
			order.RiderName = input.RiderName
		}
		if input.RiderPhone != nil {
			order.RiderPhone = input.RiderPhone
		}
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if input.ToStatus == enums.OrderStatusCancelled {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
				Data: payloads.OrderCancelledEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					UserID:      order.UserID,
					CancelledAt: time.Now().UTC(),
				},
			})
		}

		event := payloads.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			FromStatus:  fromStatus,
			ToStatus:    order.Status,
		}
		if order.RiderName != nil {
			event.RiderName = *order.RiderName
		}
		if order.RiderPhone != nil {
			event.RiderPhone = *order.RiderPhone
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(s.logg.WithField(logCtx, "to_status", string(order.Status)), "order status updated")
	return order, nil
}

// ConfirmPayment marks a prepaid order settled after staff verifies the receipt.
func (s *service) ConfirmPayment(ctx context.Context, orderNumber string, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.GetAny(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.PaymentStatus = enums.PaymentStatusPaid
		if err := s.repo.WithTx(tx).Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.PaymentConfirmedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				PaymentStatus: enums.PaymentStatusPaid,
				AmountCents:   int64(order.TotalCents),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
