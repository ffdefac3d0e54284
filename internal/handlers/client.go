package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

func (h *ClientHandler) create(w http.ResponseWriter, r *http.Request) {
	var req services.ClientParams
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}
	c, err := h.clients.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) list(w http.ResponseWriter, r *http.Request) {
	clients, total, err := h.clients.List(r.Context(), listFilter(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPage(clients, total))
}

func (h *ClientHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
