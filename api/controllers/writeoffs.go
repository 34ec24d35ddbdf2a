package controllers

import (
	"net/http"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/writeoffs"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

// WriteOffCreate records a write-off. Exactly one of productId and
// stockItemId must be set: product write-offs consume the recipe, stock
// write-offs deduct the raw item.
func WriteOffCreate(svc writeoffs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input writeoffs.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input.Reason = validators.SanitizeString(input.Reason, 500)

		created, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// WriteOffList returns write-offs newest first.
func WriteOffList(svc writeoffs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": list})
	}
}
