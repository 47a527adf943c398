package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/mariellesantos/floracart-backend/api/responses"
	"github.com/mariellesantos/floracart-backend/api/validators"
	checkoutsvc "github.com/mariellesantos/floracart-backend/internal/checkout"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/types"
)

type checkoutRequest struct {
	DeliveryMethod  string                 `json:"delivery_method" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
	DeliveryAddress *types.DeliveryAddress `json:"delivery_address,omitempty"`
	DeliveryDate    *string                `json:"delivery_date,omitempty"`
	ReceiptURL      *string                `json:"receipt_url,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
}

func (req checkoutRequest) toInput() (checkoutsvc.Input, error) {
	input := checkoutsvc.Input{
		DeliveryAddress: req.DeliveryAddress,
		ReceiptURL:      req.ReceiptURL,
		Notes:           req.Notes,
	}

	method, err := enums.ParseDeliveryMethod(req.DeliveryMethod)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method")
	}
	input.DeliveryMethod = method

	payment, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	input.PaymentMethod = payment

	if req.DeliveryDate != nil && strings.TrimSpace(*req.DeliveryDate) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.DeliveryDate))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery date")
		}
		input.DeliveryDate = &parsed
	}

	return input, nil
}

// Checkout turns the caller's cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Checkout(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
