package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/internal/cart"
	"github.com/mariellesantos/floracart-backend/internal/orders"
	"github.com/mariellesantos/floracart-backend/internal/products"
	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/payloads"
	"github.com/mariellesantos/floracart-backend/pkg/types"
)

// snapshotTTL bounds how long an abandoned checkout snapshot lingers.
const snapshotTTL = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// snapshotStore is the KV surface the checkout snapshot persists through.
type snapshotStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutKey(ownerID string) string
}

type feeQuoter interface {
	Quote(ctx context.Context, city, barangay string) (int, error)
}

// Service turns the session cart into a persisted order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

// Input carries everything the checkout form submits besides the cart itself.
type Input struct {
	DeliveryMethod  enums.DeliveryMethod
	PaymentMethod   enums.PaymentMethod
	DeliveryAddress *types.DeliveryAddress
	DeliveryDate    *time.Time
	ReceiptURL      *string
	Notes           *string
}

type service struct {
	cart     cart.Service
	products products.Repository
	orders   orders.Repository
	fees     feeQuoter
	store    snapshotStore
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
}

// Params bundles the checkout service dependencies.
type Params struct {
	Cart     cart.Service
	Products products.Repository
	Orders   orders.Repository
	Fees     feeQuoter
	Store    snapshotStore
	Tx       txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

// NewService builds the checkout service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("delivery fee quoter required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cart:     params.Cart,
		products: params.Products,
		orders:   params.Orders,
		fees:     params.Fees,
		store:    params.Store,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// Checkout validates the submission, snapshots the cart, creates the order
// with its line items, decrements stock, prunes the cart and queues the
// order.placed event. If the line item insert fails after the order header
// committed, the order is NOT rolled back: the failure is reported with the
// order number so support can repair the record.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	lines, err := s.cart.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	deliveryFeeCents := 0
	if input.DeliveryMethod == enums.DeliveryMethodDelivery {
		deliveryFeeCents, err = s.fees.Quote(ctx, input.DeliveryAddress.City, input.DeliveryAddress.Barangay)
		if err != nil {
			return nil, err
		}
	}

	items, subtotalCents, err := s.reserveStock(ctx, lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		OrderNumber:      orders.NumberFor(userID, now),
		UserID:           userID,
		Status:           enums.OrderStatusPending,
		DeliveryMethod:   input.DeliveryMethod,
		PaymentMethod:    input.PaymentMethod,
		PaymentStatus:    initialPaymentStatus(input.PaymentMethod),
		ReceiptURL:       input.ReceiptURL,
		DeliveryAddress:  input.DeliveryAddress,
		DeliveryDate:     input.DeliveryDate,
		Notes:            input.Notes,
		SubtotalCents:    subtotalCents,
		DeliveryFeeCents: deliveryFeeCents,
		TotalCents:       subtotalCents + deliveryFeeCents,
	}

	// The snapshot mirrors what the customer is about to buy, written
	// before the order so a crash mid-checkout leaves an auditable trail.
	if err := s.store.Set(ctx, s.store.CheckoutKey(userID.String()), lines, snapshotTTL); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "checkout snapshot write failed: "+err.Error())
	}

	if _, err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.orders.CreateLineItems(ctx, items); err != nil {
		logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
		s.logg.Error(logCtx, "order line items insert failed after header commit", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePartialOrder, err, fmt.Sprintf(
			"order %s was created but its items could not be saved; contact support with this order number",
			order.OrderNumber))
	}
	order.Items = items

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.OrderPlacedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         userID,
				DeliveryMethod: order.DeliveryMethod,
				PaymentMethod:  order.PaymentMethod,
				TotalCents:     int64(order.TotalCents),
				ItemCount:      len(items),
			},
		})
	})
	if err != nil {
		s.logg.Error(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order placed event emit failed", err)
	}

	purchased := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if line.ProductID != uuid.Nil {
			purchased = append(purchased, line.ProductID)
			continue
		}
		purchased = append(purchased, line.ID)
	}
	if _, err := s.cart.Prune(ctx, userID, purchased); err != nil {
		s.logg.Warn(s.logg.WithOrderNumber(ctx, order.OrderNumber), "cart prune failed: "+err.Error())
	}
	if err := s.store.Del(ctx, s.store.CheckoutKey(userID.String())); err != nil {
		s.logg.Warn(s.logg.WithOrderNumber(ctx, order.OrderNumber), "checkout snapshot cleanup failed: "+err.Error())
	}

	logCtx := s.logg.WithOrderNumber(s.logg.WithUserID(ctx, userID.String()), order.OrderNumber)
	s.logg.Info(s.logg.WithField(logCtx, "total_cents", order.TotalCents), "order placed")
	return order, nil
}

func validateInput(input Input) error {
	if !input.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery {
		if input.DeliveryAddress == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
		}
		if missing := input.DeliveryAddress.Validate(); len(missing) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery address incomplete").
				WithDetails(map[string]any{"missing": missing})
		}
		if input.DeliveryDate == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery date required")
		}
	}
	if input.PaymentMethod.IsPrepaid() {
		if input.ReceiptURL == nil || strings.TrimSpace(*input.ReceiptURL) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment receipt required for prepaid orders")
		}
	}
	return nil
}

// initialPaymentStatus maps the payment method to the status the order opens
// with: prepaid methods await receipt verification, COD is simply unpaid.
func initialPaymentStatus(method enums.PaymentMethod) enums.PaymentStatus {
	if method.IsPrepaid() {
		return enums.PaymentStatusWaitingForConfirmation
	}
	return enums.PaymentStatusToPay
}

// reserveStock turns cart lines into order line items, decrementing stock as
// it goes. Lines with no catalog reference pass through without a stock check.
func (s *service) reserveStock(ctx context.Context, lines []cart.Line) ([]models.OrderLineItem, int, error) {
	items := make([]models.OrderLineItem, 0, len(lines))
	subtotal := 0
	for _, line := range lines {
		if line.Qty < 1 {
			continue
		}
		item := models.OrderLineItem{
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			TotalCents:     line.UnitPriceCents * line.Qty,
		}
		if line.ImageURL != "" {
			image := line.ImageURL
			item.ImageURL = &image
		}
		if line.ProductID != uuid.Nil {
			productID := line.ProductID
			item.ProductID = &productID
			affected, err := s.products.DecrementStock(ctx, productID, line.Qty)
			if err != nil {
				return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if affected == 0 {
				return nil, 0, pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("%q is no longer available in the requested quantity", line.Name))
			}
		}
		subtotal += item.TotalCents
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return items, subtotal, nil
}
