package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/api/responses"
	"github.com/mariellesantos/floracart-backend/api/validators"
	feesvc "github.com/mariellesantos/floracart-backend/internal/deliveryfees"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

// QuoteDeliveryFee answers the "how much to deliver here" question the
// checkout page asks before the order exists.
func QuoteDeliveryFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := strings.TrimSpace(r.URL.Query().Get("city"))
		if city == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "city required"))
			return
		}
		barangay := strings.TrimSpace(r.URL.Query().Get("barangay"))

		feeCents, err := svc.Quote(r.Context(), city, barangay)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"fee_cents": feeCents})
	}
}

// AdminListDeliveryFees returns every configured fee row.
func AdminListDeliveryFees(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fees, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, fees)
	}
}

type deliveryFeeRequest struct {
	City     string  `json:"city" validate:"required"`
	Barangay *string `json:"barangay,omitempty"`
	FeeCents int     `json:"fee_cents" validate:"min=0"`
	IsActive bool    `json:"is_active"`
}

// AdminUpsertDeliveryFee creates or replaces the fee row for a locality.
func AdminUpsertDeliveryFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload deliveryFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fee, err := svc.Upsert(r.Context(), feesvc.Input{
			City:     strings.TrimSpace(payload.City),
			Barangay: payload.Barangay,
			FeeCents: payload.FeeCents,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, fee)
	}
}

// AdminDeleteDeliveryFee removes a fee row.
func AdminDeleteDeliveryFee(svc feesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fee id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
