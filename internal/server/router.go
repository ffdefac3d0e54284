// Package server assembles the HTTP routes of the back office, the public
// quote request endpoint and the client portal.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/auth"
	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/handlers"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/ratelimit"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB     *gorm.DB
	Logger *slog.Logger

	CORSOrigins []string
	// Limiter guards the public endpoints. Nil disables rate limiting.
	Limiter ratelimit.Limiter

	Clients     *services.ClientService
	Quotes      *services.QuoteService
	Invoices    *services.InvoiceService
	Validations *services.ValidationService
	Leads       *services.LeadService
	Documents   handlers.Documents
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		if err := d.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			logger.Warn("health check failed", "error", err)
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handlers.NewAuthHandler(d.DB).Routes(r)

	limit := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limit = ratelimit.Middleware(d.Limiter, ratelimit.ClientIP, logger)
	}

	leads := handlers.NewLeadHandler(d.Leads)
	quotes := handlers.NewQuoteHandler(d.Quotes, d.Invoices, d.Documents)
	invoices := handlers.NewInvoiceHandler(d.Invoices, d.Documents)
	clients := handlers.NewClientHandler(d.Clients)
	portal := handlers.NewPortalHandler(d.Quotes, d.Validations, d.Documents)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: d.CORSOrigins,
				AllowedMethods: []string{http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
				MaxAge:         300,
			}))
			r.Use(limit)
			r.Route("/quote-requests", leads.PublicRoutes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Route("/clients", clients.Routes)
			r.Route("/quotes", quotes.Routes)
			r.Route("/invoices", invoices.Routes)
			r.Route("/quote-requests", leads.Routes)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Route("/p", portal.Routes)
	})

	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
