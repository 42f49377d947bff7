package handler

import (
	"context"
	"net/http"

	"errorcentral/src/filter"
	"errorcentral/src/model"
	"errorcentral/src/repository"
)

const searchParam = "search"

type exceptionStore interface {
	Create(ctx context.Context, payload model.AppExceptionPayload) (*model.AppException, error)
	List(ctx context.Context, search string, ordering filter.Ordering, page filter.Pagination) (model.Page[model.AppException], error)
}

func ListExceptionsHandler(repo exceptionStore, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := filter.ParsePage(q, pageSize)
		if err != nil {
			writeError(w, err, "ListExceptions")
			return
		}
		ordering := filter.ParseOrdering(q.Get(filter.OrderingParam), repository.AppExceptionOrderingFields)

		out, err := repo.List(r.Context(), q.Get(searchParam), ordering, page)
		if err != nil {
			writeError(w, err, "ListExceptions")
			return
		}

		writePage(w, r, page, out)
	}
}

func CreateExceptionHandler(repo exceptionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.AppExceptionPayload
		if !decodeJSON(w, r, &payload) {
			return
		}

		exc, err := repo.Create(r.Context(), payload)
		if err != nil {
			writeError(w, err, "CreateException")
			return
		}

		writeJSON(w, http.StatusCreated, exc)
	}
}
