package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/i18n"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

// LeadHandler takes quote requests from the public site and lists them for
// the back office.
type LeadHandler struct {
	leads *services.LeadService
}

func NewLeadHandler(leads *services.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// PublicRoutes mounts the submission endpoint.
func (h *LeadHandler) PublicRoutes(r chi.Router) {
	r.Post("/", h.submit)
}

func (h *LeadHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

type submitResponse struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}

func (h *LeadHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req services.LeadParams
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}
	lead, err := h.leads.Submit(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, submitResponse{
		ID:      lead.ID,
		Message: i18n.T(lang(r), "quote_request_received"),
	})
}

func (h *LeadHandler) list(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context(), listFilter(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPage(leads, int64(len(leads))))
}
