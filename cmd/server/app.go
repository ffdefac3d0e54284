package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/auth"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/config"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/documents"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/hooks"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/notify"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/numbering"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/pdf"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/ratelimit"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/server"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/storage"
)

// App is the wired application: the HTTP handler and the housekeeping that
// runs next to it.
type App struct {
	Handler http.Handler

	counters *ratelimit.GormStore
	logger   *slog.Logger
}

// NewApp wires every service on conn.
func NewApp(cfg *config.Config, conn *gorm.DB, logger *slog.Logger) (*App, error) {
	taxRate, err := decimal.NewFromString(cfg.Workflow.DefaultTaxRate)
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE: %w", err)
	}
	opts := services.Options{
		ValidationTTL:     cfg.Workflow.ValidationTTL,
		MaxAttempts:       cfg.Workflow.MaxAttempts,
		QuoteValidityDays: cfg.Workflow.QuoteValidityDays,
		PaymentDelayDays:  cfg.Workflow.PaymentDelayDays,
		DefaultTaxRate:    decimal.NewNullDecimal(taxRate),
	}

	auth.Configure(cfg.App.SessionSecret, !cfg.App.Dev)

	bus := events.NewBus(logger)
	alloc := numbering.NewAllocator()
	docs := documents.NewService(conn,
		pdf.New(cfg.Branding, logger),
		storage.New(conn, cfg.App.MediaRoot, logger))
	outbox := notify.NewOutbox(conn, logger, notify.Options{
		PublicBaseURL: cfg.App.PublicBaseURL,
		AgencyEmail:   cfg.App.AgencyEmail,
		AgencyName:    cfg.Branding.Name,
	})
	hooks.Register(bus, docs, outbox)

	counters := ratelimit.NewGormStore(conn)
	handler := server.New(server.Deps{
		DB:          conn,
		Logger:      logger,
		CORSOrigins: cfg.App.CORSOrigins,
		Limiter: &ratelimit.FixedWindow{
			Store:  counters,
			Limit:  cfg.RateLimit.Requests,
			Window: cfg.RateLimit.Window,
			Scope:  "public",
		},
		Clients:     services.NewClientService(conn),
		Quotes:      services.NewQuoteService(conn, alloc, bus, opts),
		Invoices:    services.NewInvoiceService(conn, alloc, bus, opts),
		Validations: services.NewValidationService(conn, bus, opts),
		Leads:       services.NewLeadService(conn, bus),
		Documents:   docs,
	})

	return &App{Handler: handler, counters: counters, logger: logger}, nil
}

// PurgeCounters drops expired rate limit counters every interval until ctx ends.
func (a *App) PurgeCounters(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.counters.Purge(ctx)
			if err != nil {
				a.logger.Warn("purge rate limit counters", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("purged rate limit counters", "count", n)
			}
		}
	}
}
