package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/documents"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

// Documents renders quote and invoice PDFs, optionally storing them.
type Documents interface {
	Quote(ctx context.Context, q *models.Quote, attach bool) ([]byte, error)
	Invoice(ctx context.Context, inv *models.Invoice, attach bool) ([]byte, error)
}

type QuoteHandler struct {
	quotes   *services.QuoteService
	invoices *services.InvoiceService
	docs     Documents
}

func NewQuoteHandler(quotes *services.QuoteService, invoices *services.InvoiceService, docs Documents) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, invoices: invoices, docs: docs}
}

func (h *QuoteHandler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/from-request/{id}", h.fromRequest)
	r.Get("/{id}", h.get)
	r.Post("/{id}/recompute", h.recompute)
	r.Post("/{id}/send", h.send)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/invoice", h.invoice)
	r.Get("/{id}/pdf", h.pdf)
}

func (h *QuoteHandler) create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateQuoteParams
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}
	q, err := h.quotes.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) fromRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.CreateFromRequest(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) list(w http.ResponseWriter, r *http.Request) {
	quotes, total, err := h.quotes.List(r.Context(), listFilter(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPage(quotes, total))
}

func (h *QuoteHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) recompute(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.RecomputeTotals(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) send(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.Send(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.Reject(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) invoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.CreateFromQuote(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// pdf renders the quote. With ?attach=1 the file is also stored and linked.
func (h *QuoteHandler) pdf(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := h.docs.Quote(r.Context(), q, attachParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.Bytes(w, http.StatusOK, "application/pdf", documents.FileName(q.Number), data)
}

func attachParam(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("attach"))
	return v
}
