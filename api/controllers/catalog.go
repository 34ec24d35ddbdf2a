package controllers

import (
	"context"
	"net/http"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

type catalogNamePayload struct {
	Name string `json:"name" validate:"required"`
}

// CatalogCreateUnit registers a measurement unit.
func CatalogCreateUnit(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogCreate(logg, func(ctx context.Context, name string) (any, error) {
		return svc.CreateUnit(ctx, name)
	})
}

// CatalogListUnits returns all measurement units.
func CatalogListUnits(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		units, err := svc.ListUnits(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": units})
	}
}

// CatalogCreateStockCategory registers a stock category.
func CatalogCreateStockCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogCreate(logg, func(ctx context.Context, name string) (any, error) {
		return svc.CreateStockCategory(ctx, name)
	})
}

// CatalogListStockCategories returns all stock categories.
func CatalogListStockCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		categories, err := svc.ListStockCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": categories})
	}
}

// CatalogCreateExpenseCategory registers an expense category.
func CatalogCreateExpenseCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return catalogCreate(logg, func(ctx context.Context, name string) (any, error) {
		return svc.CreateExpenseCategory(ctx, name)
	})
}

// CatalogListExpenseCategories returns all expense categories.
func CatalogListExpenseCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		categories, err := svc.ListExpenseCategories(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": categories})
	}
}

func catalogCreate(logg *logger.Logger, create func(ctx context.Context, name string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload catalogNamePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := create(ctx, payload.Name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}
