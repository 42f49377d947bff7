package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"errorcentral/src/filter"
	"errorcentral/src/model"
	"errorcentral/src/repository"
)

const (
	detailNotFound    = "Not found."
	detailInvalidPage = "Invalid page."
	detailServerError = "Internal Server Error"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service errors to responses. op names the handler in the log.
func writeError(w http.ResponseWriter, err error, op string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, filter.ErrInvalidPage):
		writeDetail(w, http.StatusNotFound, detailInvalidPage)
	case errors.Is(err, repository.ErrNotFound):
		writeDetail(w, http.StatusNotFound, detailNotFound)
	default:
		logger.WithField("op", op).WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, detailServerError)
	}
}

// decodeJSON reads the request body into dst. An empty body decodes as {} so that
// missing fields are reported by validation. It writes the 400 response itself and
// returns false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logger.WithError(err).Warn("invalid request payload")
	writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
	return false
}

// pathID reads the {id} route parameter. Values that cannot name a row are reported
// as not found.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return 0, false
	}
	return uint(id), true
}

// writePage fills the next/previous links of out from the request URL and writes it.
func writePage[T any](w http.ResponseWriter, r *http.Request, page filter.Pagination, out model.Page[T]) {
	page, err := page.Resolve(out.Count)
	if err != nil {
		writeError(w, err, "writePage")
		return
	}
	out.Next, out.Previous = page.Links(requestURL(r), out.Count)
	if out.Results == nil {
		out.Results = []T{}
	}
	writeJSON(w, http.StatusOK, out)
}

// requestURL rebuilds the absolute URL the client called.
func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}
