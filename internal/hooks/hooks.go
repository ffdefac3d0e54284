// Package hooks subscribes the post-commit side effects of the workflow to
// the event bus: documents are regenerated and notifications queued.
package hooks

import (
	"context"
	"fmt"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

//go:generate mockgen -source=hooks.go -destination=hooks_mock.go -package=hooks

// Documents regenerates and stores PDFs.
type Documents interface {
	Quote(ctx context.Context, q *models.Quote, attach bool) ([]byte, error)
	Invoice(ctx context.Context, inv *models.Invoice, attach bool) ([]byte, error)
}

// Notifier queues the messages sent to clients and to the agency.
type Notifier interface {
	ValidationCode(ctx context.Context, q *models.Quote, v *models.QuoteValidation) error
	QuoteSent(ctx context.Context, q *models.Quote) error
	QuoteAccepted(ctx context.Context, q *models.Quote) error
	InvoiceCreated(ctx context.Context, inv *models.Invoice) error
	LeadSubmitted(ctx context.Context, r *models.QuoteRequest) error
}

// Register wires every side effect. Each one is a separate subscriber so a
// failing PDF does not hide a failing notification and vice versa.
func Register(bus *events.Bus, docs Documents, notifier Notifier) {
	bus.Subscribe(events.ValidationStarted, func(ctx context.Context, e events.Event) error {
		p, ok := e.Payload.(services.ValidationStarted)
		if !ok || p.Quote == nil || p.Validation == nil {
			return payloadError(e)
		}
		return notifier.ValidationCode(ctx, p.Quote, p.Validation)
	})

	bus.Subscribe(events.QuoteSent, quoteHandler(func(ctx context.Context, q *models.Quote) error {
		return notifier.QuoteSent(ctx, q)
	}))

	bus.Subscribe(events.QuoteAccepted, quoteHandler(func(ctx context.Context, q *models.Quote) error {
		if _, err := docs.Quote(ctx, q, true); err != nil {
			return fmt.Errorf("regenerate accepted quote: %w", err)
		}
		return nil
	}))
	bus.Subscribe(events.QuoteAccepted, quoteHandler(notifier.QuoteAccepted))

	bus.Subscribe(events.InvoiceCreated, func(ctx context.Context, e events.Event) error {
		inv, ok := e.Payload.(*models.Invoice)
		if !ok || inv == nil {
			return payloadError(e)
		}
		if _, err := docs.Invoice(ctx, inv, true); err != nil {
			return fmt.Errorf("generate invoice: %w", err)
		}
		return nil
	})
	bus.Subscribe(events.InvoiceCreated, func(ctx context.Context, e events.Event) error {
		inv, ok := e.Payload.(*models.Invoice)
		if !ok || inv == nil {
			return payloadError(e)
		}
		return notifier.InvoiceCreated(ctx, inv)
	})

	bus.Subscribe(events.LeadSubmitted, func(ctx context.Context, e events.Event) error {
		r, ok := e.Payload.(*models.QuoteRequest)
		if !ok || r == nil {
			return payloadError(e)
		}
		return notifier.LeadSubmitted(ctx, r)
	})
}

func quoteHandler(fn func(ctx context.Context, q *models.Quote) error) events.Handler {
	return func(ctx context.Context, e events.Event) error {
		q, ok := e.Payload.(*models.Quote)
		if !ok || q == nil {
			return payloadError(e)
		}
		return fn(ctx, q)
	}
}

func payloadError(e events.Event) error {
	return fmt.Errorf("%s: unexpected payload %T", e.Name, e.Payload)
}
