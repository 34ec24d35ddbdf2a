package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/stock"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type stockDeltaPayload struct {
	Amount float64 `json:"amount" validate:"required"`
}

type stockSetPayload struct {
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// stockItemName extracts and decodes the {name} path parameter. Item names
// may contain spaces, so the route value arrives percent-encoded.
func stockItemName(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	name := strings.TrimSpace(decoded)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "stock item name is required")
	}
	return name, nil
}

// StockList returns every stock item with its category and unit resolved.
func StockList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		items, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// StockGet returns a single stock item by name.
func StockGet(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name, err := stockItemName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Get(ctx, name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// StockAdd registers a new stock item.
func StockAdd(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input stock.AddInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Add(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// StockDelta applies a signed quantity adjustment to an item. Decrements
// that would take the quantity below zero are rejected.
func StockDelta(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name, err := stockItemName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload stockDeltaPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Delta(ctx, name, payload.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// StockSet overwrites an item quantity, e.g. after a physical recount.
func StockSet(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name, err := stockItemName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload stockSetPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.Set(ctx, name, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// StockDelete removes an item. Items referenced by recipes are refused.
func StockDelete(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		name, err := stockItemName(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, name); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
