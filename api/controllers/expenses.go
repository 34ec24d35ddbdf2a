package controllers

import (
	"net/http"

	"github.com/avelkov/craftstock-backend/api/responses"
	"github.com/avelkov/craftstock-backend/api/validators"
	"github.com/avelkov/craftstock-backend/internal/expenses"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

// ExpenseTypeCreate registers an expense type. Stock-affecting types drive
// ledger replenishment when documents are posted against them.
func ExpenseTypeCreate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input expenses.TypeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateType(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ExpenseTypeList returns all expense types.
func ExpenseTypeList(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		types, err := svc.ListTypes(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": types})
	}
}

// ExpenseTypeDelete removes an expense type unless documents reference it.
func ExpenseTypeDelete(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "typeId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteType(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ExpenseDocumentPost posts a purchase document. Stock-affecting lines
// increment the ledger in the same transaction as the document rows.
func ExpenseDocumentPost(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var input expenses.DocumentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		doc, err := svc.PostDocument(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

// ExpenseDocumentGet returns a document with its items.
func ExpenseDocumentGet(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		doc, err := svc.GetDocument(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}

// ExpenseDocumentList returns documents newest first.
func ExpenseDocumentList(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		docs, err := svc.ListDocuments(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": docs})
	}
}

// ExpenseDocumentDelete removes a document and reverses its stock
// increments. The call is refused when a reversal would overdraw an item.
func ExpenseDocumentDelete(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteDocument(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
