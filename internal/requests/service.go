package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mariellesantos/floracart-backend/internal/tracking"
	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/outbox/payloads"
	"github.com/mariellesantos/floracart-backend/pkg/pagination"
	"github.com/mariellesantos/floracart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines request operations for customers and shop staff. Requests
// cover the three quote-driven flows: event bookings, special orders and
// customized bouquets.
type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Request, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Request, string, error)
	ListAll(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Request, string, error)
	Get(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error)
	GetAny(ctx context.Context, requestNumber string) (*models.Request, error)
	Track(ctx context.Context, userID uuid.UUID, requestNumber string) (*tracking.Timeline, error)
	Cancel(ctx context.Context, userID uuid.UUID, requestNumber string) error
	AcceptQuote(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error)
	Quote(ctx context.Context, requestNumber string, priceCents int, actorID uuid.UUID) (*models.Request, error)
	Decline(ctx context.Context, requestNumber string, reason string, actorID uuid.UUID) (*models.Request, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Request, error)
}

// SubmitInput carries a new booking, special order or customized bouquet.
type SubmitInput struct {
	Kind               enums.RequestKind
	DeliveryMethod     enums.DeliveryMethod
	PaymentMethod      enums.PaymentMethod
	EventDate          *time.Time
	Details            json.RawMessage
	ReferenceImageURLs []string
	DeliveryAddress    *types.DeliveryAddress
}

// StatusUpdateInput carries a staff fulfillment transition.
type StatusUpdateInput struct {
	RequestNumber string
	ToStatus      enums.RequestStatus
	ActorID       uuid.UUID
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the requests service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
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

// NumberFor builds a human-readable request number tied to the requester.
func NumberFor(kind enums.RequestKind, userID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d", kind.NumberPrefix(), strings.ToUpper(userID.String()[:8]), at.Unix())
}

// allowedTransitions maps each status to the transitions staff may take.
// Quote, decline and accept-quote run through their own operations and are
// deliberately absent here.
var allowedTransitions = map[enums.RequestStatus][]enums.RequestStatus{
	enums.RequestStatusAccepted:         {enums.RequestStatusProcessing, enums.RequestStatusCancelled},
	enums.RequestStatusProcessing:       {enums.RequestStatusReadyForDelivery, enums.RequestStatusReadyForPickup, enums.RequestStatusCancelled},
	enums.RequestStatusReadyForDelivery: {enums.RequestStatusOutForDelivery, enums.RequestStatusCancelled},
	enums.RequestStatusOutForDelivery:   {enums.RequestStatusCompleted},
	enums.RequestStatusReadyForPickup:   {enums.RequestStatusCompleted, enums.RequestStatusCancelled},
}

func transitionAllowed(from, to enums.RequestStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// cancellableByCustomer reports whether the shop has not started work yet.
func cancellableByCustomer(status enums.RequestStatus) bool {
	switch status {
	case enums.RequestStatusPending, enums.RequestStatusQuoted, enums.RequestStatusAccepted:
		return true
	}
	return false
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*models.Request, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Kind.IsValid() || input.Kind == enums.RequestKindOrder {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kind must be booking, special or customized")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Details) > 0 && !json.Valid(input.Details) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "details must be valid JSON")
	}
	if input.Kind == enums.RequestKindBooking && input.EventDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event date required for bookings")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery {
		if input.DeliveryAddress == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
		}
		if missing := input.DeliveryAddress.Validate(); len(missing) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address incomplete").
				WithDetails(map[string]any{"missing": missing})
		}
	}

	now := time.Now().UTC()
	request := &models.Request{
		RequestNumber:      NumberFor(input.Kind, userID, now),
		UserID:             userID,
		Kind:               input.Kind,
		Status:             enums.RequestStatusPending,
		DeliveryMethod:     input.DeliveryMethod,
		PaymentMethod:      input.PaymentMethod,
		PaymentStatus:      enums.PaymentStatusToPay,
		EventDate:          input.EventDate,
		Details:            input.Details,
		ReferenceImageURLs: pq.StringArray(input.ReferenceImageURLs),
		DeliveryAddress:    input.DeliveryAddress,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestSubmitted,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.RequestSubmittedEvent{
				RequestID:     request.ID,
				RequestNumber: request.RequestNumber,
				UserID:        userID,
				Kind:          request.Kind,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"request_number": request.RequestNumber,
		"kind":           string(request.Kind),
	})
	s.logg.Info(logCtx, "request submitted")
	return request, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Request, string, error) {
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
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return paginate(rows, limit)
}

func (s *service) ListAll(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Request, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	return paginate(rows, limit)
}

func paginate(rows []models.Request, limit int) ([]models.Request, string, error) {
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error) {
	request, err := s.GetAny(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return request, nil
}

func (s *service) GetAny(ctx context.Context, requestNumber string) (*models.Request, error) {
	requestNumber = strings.TrimSpace(requestNumber)
	if requestNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request number required")
	}
	request, err := s.repo.FindByNumber(ctx, requestNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	return request, nil
}

// Track projects the request into its customer-facing timeline. The flow
// depends on the request kind: quote-driven kinds carry the quoted and
// accepted steps, which plain orders never show.
func (s *service) Track(ctx context.Context, userID uuid.UUID, requestNumber string) (*tracking.Timeline, error) {
	request, err := s.Get(ctx, userID, requestNumber)
	if err != nil {
		return nil, err
	}
	timeline := tracking.Project(tracking.Record{
		Status:         string(request.Status),
		DeliveryMethod: request.DeliveryMethod,
		PaymentMethod:  request.PaymentMethod,
		PaymentStatus:  request.PaymentStatus,
		CreatedAt:      request.CreatedAt,
	}, request.Kind)
	return &timeline, nil
}

// Cancel lets the customer back out while the shop has not started work.
func (s *service) Cancel(ctx context.Context, userID uuid.UUID, requestNumber string) error {
	request, err := s.Get(ctx, userID, requestNumber)
	if err != nil {
		return err
	}
	if !cancellableByCustomer(request.Status) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "request can no longer be cancelled")
	}

	fromStatus := request.Status
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request.Status = enums.RequestStatusCancelled
		if err := s.repo.WithTx(tx).Save(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel request")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestStatusChanged,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.RequestStatusChangedEvent{
				RequestID:     request.ID,
				RequestNumber: request.RequestNumber,
				UserID:        request.UserID,
				Kind:          request.Kind,
				FromStatus:    fromStatus,
				ToStatus:      request.Status,
			},
		})
	})
}

// AcceptQuote moves a quoted request into the fulfillment queue.
func (s *service) AcceptQuote(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error) {
	request, err := s.Get(ctx, userID, requestNumber)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusQuoted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request has no pending quote")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request.Status = enums.RequestStatusAccepted
		if err := s.repo.WithTx(tx).Save(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept quote")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestStatusChanged,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.UserRoleCustomer)},
			Data: payloads.RequestStatusChangedEvent{
				RequestID:     request.ID,
				RequestNumber: request.RequestNumber,
				UserID:        request.UserID,
				Kind:          request.Kind,
				FromStatus:    enums.RequestStatusQuoted,
				ToStatus:      enums.RequestStatusAccepted,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Quote prices a pending request. Re-quoting a quoted request is allowed so
// staff can correct a price before the customer accepts.
func (s *service) Quote(ctx context.Context, requestNumber string, priceCents int, actorID uuid.UUID) (*models.Request, error) {
	if priceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoted price must be positive")
	}
	request, err := s.GetAny(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.RequestStatusPending && request.Status != enums.RequestStatusQuoted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request cannot be quoted from its current status")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request.Status = enums.RequestStatusQuoted
		request.QuotedPriceCents = &priceCents
		if err := s.repo.WithTx(tx).Save(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "quote request")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestQuoted,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.RequestQuotedEvent{
				RequestID:        request.ID,
				RequestNumber:    request.RequestNumber,
				UserID:           request.UserID,
				Kind:             request.Kind,
				QuotedPriceCents: int64(priceCents),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(ctx, "request_number", request.RequestNumber)
	s.logg.Info(logCtx, "request quoted")
	return request, nil
}

// Decline turns down a request before fulfillment starts.
func (s *service) Decline(ctx context.Context, requestNumber string, reason string, actorID uuid.UUID) (*models.Request, error) {
	request, err := s.GetAny(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() || request.Status == enums.RequestStatusProcessing ||
		request.Status == enums.RequestStatusReadyForDelivery || request.Status == enums.RequestStatusOutForDelivery ||
		request.Status == enums.RequestStatusReadyForPickup {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request can no longer be declined")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request.Status = enums.RequestStatusDeclined
		reason = strings.TrimSpace(reason)
		if reason != "" {
			request.DeclineReason = &reason
		}
		if err := s.repo.WithTx(tx).Save(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline request")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestDeclined,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.RequestDeclinedEvent{
				RequestID:     request.ID,
				RequestNumber: request.RequestNumber,
				UserID:        request.UserID,
				Kind:          request.Kind,
				Reason:        reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// UpdateStatus applies one staff fulfillment transition and queues the
// matching notification event.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*models.Request, error) {
	if !input.ToStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid request status")
	}
	request, err := s.GetAny(ctx, input.RequestNumber)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already finalized")
	}
	if !transitionAllowed(request.Status, input.ToStatus) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move request from %s to %s", request.Status, input.ToStatus))
	}
	if input.ToStatus == enums.RequestStatusReadyForDelivery && request.DeliveryMethod != enums.DeliveryMethodDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pickup requests cannot enter the delivery chain")
	}
	if input.ToStatus == enums.RequestStatusReadyForPickup && request.DeliveryMethod != enums.DeliveryMethodPickup {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery requests cannot enter the pickup chain")
	}

	fromStatus := request.Status
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		request.Status = input.ToStatus
		if err := s.repo.WithTx(tx).Save(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestStatusChanged,
			AggregateType: enums.AggregateRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.RequestStatusChangedEvent{
				RequestID:     request.ID,
				RequestNumber: request.RequestNumber,
				UserID:        request.UserID,
				Kind:          request.Kind,
				FromStatus:    fromStatus,
				ToStatus:      request.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(ctx, "request_number", request.RequestNumber)
	s.logg.Info(s.logg.WithField(logCtx, "to_status", string(request.Status)), "request status updated")
	return request, nil
}
