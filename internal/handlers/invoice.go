package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/documents"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
	docs     Documents
	now      func() time.Time
}

func NewInvoiceHandler(invoices *services.InvoiceService, docs Documents) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, docs: docs, now: time.Now}
}

func (h *InvoiceHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/pdf", h.pdf)
	r.Post("/{id}/discount", h.discount)
	r.Post("/{id}/send", h.send)
	r.Post("/{id}/paid", h.paid)
}

// invoiceResponse adds the status shown to users, which turns sent invoices
// past their due date into overdue ones.
type invoiceResponse struct {
	*models.Invoice
	DisplayStatus models.InvoiceStatus `json:"display_status"`
}

func (h *InvoiceHandler) view(inv *models.Invoice) invoiceResponse {
	return invoiceResponse{Invoice: inv, DisplayStatus: inv.DisplayStatus(h.now())}
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	invoices, total, err := h.invoices.List(r.Context(), listFilter(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, h.view(&invoices[i]))
	}
	httpx.JSON(w, http.StatusOK, newPage(out, total))
}

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *InvoiceHandler) pdf(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := h.docs.Invoice(r.Context(), inv, attachParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.Bytes(w, http.StatusOK, "application/pdf", documents.FileName(inv.Number), data)
}

type discountRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

func (h *InvoiceHandler) discount(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}
	inv, err := h.invoices.SetDiscount(r.Context(), id, req.Discount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

func (h *InvoiceHandler) send(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	inv, err := h.invoices.MarkSent(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}

type paidRequest struct {
	PaidAt time.Time `json:"paid_at"`
}

// paid accepts an optional body; without paid_at the payment is dated now.
func (h *InvoiceHandler) paid(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req paidRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badJSON(w, r)
			return
		}
	}
	inv, err := h.invoices.MarkPaid(r.Context(), id, req.PaidAt)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(inv))
}
