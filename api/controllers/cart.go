package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/api/responses"
	"github.com/mariellesantos/floracart-backend/api/validators"
	cartsvc "github.com/mariellesantos/floracart-backend/internal/cart"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

type cartResponse struct {
	Items []cartsvc.Line `json:"items"`
}

// GetCart returns the caller's current cart lines.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.Load(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Items: lines})
	}
}

type addCartItemRequest struct {
	ProductID      string `json:"product_id,omitempty"`
	Name           string `json:"name" validate:"required"`
	ImageURL       string `json:"image_url,omitempty"`
	UnitPriceCents int    `json:"unit_price_cents" validate:"min=0"`
	Qty            int    `json:"qty" validate:"required,min=1"`
}

// AddCartItem puts a line into the cart, merging with an existing line for
// the same product, or for the same name when the item has no catalog
// reference (customized bouquets quoted through a request).
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var productID uuid.UUID
		if payload.ProductID != "" {
			productID, err = uuid.Parse(payload.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
		}

		lines, err := svc.Add(r.Context(), userID, cartsvc.Line{
			ProductID:      productID,
			Name:           strings.TrimSpace(payload.Name),
			ImageURL:       strings.TrimSpace(payload.ImageURL),
			UnitPriceCents: payload.UnitPriceCents,
			Qty:            payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Items: lines})
	}
}

type updateCartQtyRequest struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

// UpdateCartQty sets the quantity on one cart line. Lines are only dropped
// through the explicit remove endpoint.
func UpdateCartQty(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var payload updateCartQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := svc.UpdateQty(r.Context(), userID, itemID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Items: lines})
	}
}

// RemoveCartItem drops one line from the cart, matched by line or product id.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		lines, err := svc.Remove(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Items: lines})
	}
}

// CartCount returns the badge count for the cart icon.
func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.Count(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}
