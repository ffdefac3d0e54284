package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/auth"
	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.With(auth.RequireAuth).Get("/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}

	var user models.User
	err := h.db.WithContext(r.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		Take(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondCode(w, r, http.StatusUnauthorized, "invalid_credentials")
		return
	case err != nil:
		respondError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		respondCode(w, r, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var user models.User
	if err := h.db.WithContext(r.Context()).Take(&user, uid).Error; err != nil {
		respondCode(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
