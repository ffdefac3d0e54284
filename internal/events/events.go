// Package events is a small synchronous event bus. Services emit events
// explicitly after their transaction has committed; subscribers run in
// registration order and their failures are collected, never propagated
// into the operation that emitted the event.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Event names.
const (
	QuoteSent         = "quote.sent"
	QuoteAccepted     = "quote.accepted"
	QuoteRejected     = "quote.rejected"
	ValidationStarted = "validation.started"
	InvoiceCreated    = "invoice.created"
	LeadSubmitted     = "lead.submitted"
)

// Event is a named occurrence with an entity payload.
type Event struct {
	Name    string
	Payload any
}

// Handler reacts to an event.
type Handler func(ctx context.Context, e Event) error

// Emitter is the side of the bus the services depend on.
//
//go:generate mockgen -source=events.go -destination=emitter_mock.go -package=events
type Emitter interface {
	Emit(ctx context.Context, e Event) []error
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Emit runs every handler of e.Name and returns the errors they reported.
// A panicking handler is recovered and reported as an error.
func (b *Bus) Emit(ctx context.Context, e Event) []error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Name]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range hs {
		if err := b.run(ctx, h, e); err != nil {
			b.logger.Warn("event handler failed", "event", e.Name, "error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

func (b *Bus) run(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s handler panicked: %v", e.Name, r)
		}
	}()
	return h(ctx, e)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, Event) []error { return nil }
