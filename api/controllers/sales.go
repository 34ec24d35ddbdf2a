package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/sales"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/logger"
	"github.com/avelkov/craftstock-backend/pkg/pagination"
)

// SaleCreate records a sale and deducts the product recipe from stock in
// the same transaction.
func SaleCreate(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input sales.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sale, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sale)
	}
}

// SaleList returns the sales journal newest first with cursor pagination
// and optional from/to date bounds.
func SaleList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := sales.ListQuery{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}

		if query.From, err = parseQueryTime(r, "from"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if query.To, err = parseQueryTime(r, "to"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// parseQueryTime accepts RFC3339 timestamps or bare dates (2024-01-31).
func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date query parameter").
		WithDetails(map[string]any{"field": key})
}
