// Package handlers exposes the back office and the client portal as JSON
// endpoints. Each handler mounts its routes on a chi router.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/i18n"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/storage"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

// errorDetails is the details member of an error response.
type errorDetails struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{services.ErrQuoteNotFound, http.StatusNotFound, "not_found"},
	{services.ErrInvoiceNotFound, http.StatusNotFound, "not_found"},
	{services.ErrClientNotFound, http.StatusNotFound, "not_found"},
	{services.ErrQuoteRequestNotFound, http.StatusNotFound, "not_found"},
	{services.ErrValidationNotFound, http.StatusNotFound, "not_found"},
	{storage.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrNotValidatable, http.StatusConflict, "quote_not_validatable"},
	{services.ErrValidationExpired, http.StatusGone, "validation_expired"},
	{services.ErrTooManyAttempts, http.StatusForbidden, "too_many_attempts"},
	{services.ErrQuoteAlreadyInvoiced, http.StatusConflict, "quote_already_invoiced"},
	{services.ErrQuoteStatus, http.StatusConflict, "quote_status_invalid"},
	{services.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{services.ErrRequestProcessed, http.StatusConflict, "request_processed"},
}

func lang(r *http.Request) string {
	return i18n.DetectLanguage(r.Header.Get("Accept-Language"))
}

// respondError writes a translated error body. Unknown errors are logged and
// answered with 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	l := lang(r)

	var violations validation.Violations
	if errors.As(err, &violations) {
		fields := make(map[string]string, len(violations))
		for f, code := range violations {
			fields[f] = i18n.T(l, code)
		}
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed",
			errorDetails{Message: i18n.T(l, "validation_failed"), Fields: fields})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondCode(w, r, m.status, m.code)
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	respondCode(w, r, http.StatusInternalServerError, "internal_error")
}

func respondCode(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.JSONError(w, status, code, errorDetails{Message: i18n.T(lang(r), code)})
}

func badJSON(w http.ResponseWriter, r *http.Request) {
	respondCode(w, r, http.StatusBadRequest, "invalid_json")
}

// idParam parses the {id} URL parameter. It answers 404 itself when the
// parameter is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondCode(w, r, http.StatusNotFound, "not_found")
		return 0, false
	}
	return uint(id), true
}

// listFilter reads status, client_id, limit and offset from the query string.
// Malformed numbers are ignored.
func listFilter(r *http.Request) services.ListFilter {
	q := r.URL.Query()
	f := services.ListFilter{Status: q.Get("status")}
	if v, err := strconv.ParseUint(q.Get("client_id"), 10, 64); err == nil {
		f.ClientID = uint(v)
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = v
	}
	return f
}

// page is the body of list endpoints.
type page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func newPage[T any](items []T, total int64) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Items: items, Total: total}
}

// logSideEffects reports post-commit failures that do not change the answer.
func logSideEffects(r *http.Request, what string, errs []error) {
	for _, err := range errs {
		slog.WarnContext(r.Context(), "side effect failed", "operation", what, "error", err)
	}
}
