package handler

import (
	"context"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"errorcentral/src/auth"
	"errorcentral/src/filter"
	"errorcentral/src/model"
	"errorcentral/src/repository"
)

type errorLogStore interface {
	Create(ctx context.Context, userID uint, payload model.ErrorLogPayload) (*model.ErrorLog, error)
	List(ctx context.Context, f filter.ErrorLogFilter, ordering filter.Ordering, page filter.Pagination) (model.Page[model.ErrorLog], error)
	FindByID(ctx context.Context, id uint) (*model.ErrorLog, error)
	Delete(ctx context.Context, id uint) error
}

// ListErrorLogsHandler lists error logs. Query keys: level, agent, environment,
// description, exception, user, ordering (level, date, environment, exception__title)
// and page.
func ListErrorLogsHandler(repo errorLogStore, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f, err := filter.ParseErrorLogFilter(q)
		if err != nil {
			writeError(w, err, "ListErrorLogs")
			return
		}
		page, err := filter.ParsePage(q, pageSize)
		if err != nil {
			writeError(w, err, "ListErrorLogs")
			return
		}
		ordering := filter.ParseOrdering(q.Get(filter.OrderingParam), repository.ErrorLogOrderingFields)

		out, err := repo.List(r.Context(), f, ordering, page)
		if err != nil {
			writeError(w, err, "ListErrorLogs")
			return
		}

		writePage(w, r, page, out)
	}
}

// CreateErrorLogHandler stores an error log reported by the authenticated user.
func CreateErrorLogHandler(repo errorLogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			logger.Warn("user not found in context during error log creation")
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		var payload model.ErrorLogPayload
		if !decodeJSON(w, r, &payload) {
			return
		}

		entry, err := repo.Create(r.Context(), user.ID, payload)
		if err != nil {
			writeError(w, err, "CreateErrorLog")
			return
		}

		writeJSON(w, http.StatusCreated, entry)
	}
}

func GetErrorLogHandler(repo errorLogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		entry, err := repo.FindByID(r.Context(), id)
		if err != nil {
			writeError(w, err, "GetErrorLog")
			return
		}
		if entry == nil {
			writeDetail(w, http.StatusNotFound, detailNotFound)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

func DeleteErrorLogHandler(repo errorLogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			writeError(w, err, "DeleteErrorLog")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
