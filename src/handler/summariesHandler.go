package handler

import (
	"context"
	"net/http"

	"errorcentral/src/filter"
	"errorcentral/src/model"
	"errorcentral/src/repository"
)

type summarizer interface {
	Summarize(ctx context.Context, f filter.ErrorLogFilter, ordering filter.Ordering, page filter.Pagination) (model.Page[model.Summary], error)
}

// ListSummariesHandler returns event counts per exception. It accepts the same filter
// keys as the error log listing; ordering is by events or level.
func ListSummariesHandler(repo summarizer, pageSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f, err := filter.ParseErrorLogFilter(q)
		if err != nil {
			writeError(w, err, "ListSummaries")
			return
		}
		page, err := filter.ParsePage(q, pageSize)
		if err != nil {
			writeError(w, err, "ListSummaries")
			return
		}
		ordering := filter.ParseOrdering(q.Get(filter.OrderingParam), repository.SummaryOrderingFields)

		out, err := repo.Summarize(r.Context(), f, ordering, page)
		if err != nil {
			writeError(w, err, "ListSummaries")
			return
		}

		writePage(w, r, page, out)
	}
}
