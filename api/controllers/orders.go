package controllers

import (
	"net/http"
	"strings"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/orders"
	"github.com/avelkov/craftstock-backend/pkg/enums"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

// OrderCreate opens an order. With completeNow set, completion is attempted
// right after creation; a completion failure leaves the order pending and is
// reported alongside it instead of failing the call.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input orders.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.Note != nil {
			note := validators.SanitizeString(*input.Note, 1000)
			input.Note = &note
		}

		result, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body := map[string]any{"order": result.Order}
		if result.CompletionError != nil {
			body["completionError"] = map[string]any{
				"code":    result.CompletionError.Code(),
				"message": result.CompletionError.Message(),
				"details": result.CompletionError.Details(),
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, body)
	}
}

// OrderComplete finalizes a pending order, deducting stock and writing one
// sale row per order item.
func OrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Complete(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderGet returns a single order with its items.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderList returns orders newest first, optionally filtered by status.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var query orders.ListQuery
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		list, err := svc.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": list})
	}
}

// OrderDelete removes a pending order. Completed orders are kept as history
// and cannot be deleted.
func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
