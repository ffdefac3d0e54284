// Package services holds the business operations of the back office: quote
// lifecycle, OTP validation, invoice derivation and lead capture. Each
// operation runs in its own transaction and emits its events only after
// commit.
package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
)

// Options tune the workflow. Zero values take the defaults below.
type Options struct {
	ValidationTTL     time.Duration
	MaxAttempts       int
	QuoteValidityDays int
	PaymentDelayDays  int
	// DefaultTaxRate applies to items without a rate. Unset means 20 %;
	// a set zero is kept for VAT-exempt agencies.
	DefaultTaxRate    decimal.NullDecimal
	Now               func() time.Time
}

const (
	DefaultValidationTTL     = 15 * time.Minute
	DefaultMaxAttempts       = 5
	DefaultQuoteValidityDays = 30
	DefaultPaymentDelayDays  = 30
)

func (o Options) withDefaults() Options {
	if o.ValidationTTL <= 0 {
		o.ValidationTTL = DefaultValidationTTL
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.QuoteValidityDays <= 0 {
		o.QuoteValidityDays = DefaultQuoteValidityDays
	}
	if o.PaymentDelayDays <= 0 {
		o.PaymentDelayDays = DefaultPaymentDelayDays
	}
	if !o.DefaultTaxRate.Valid {
		o.DefaultTaxRate = decimal.NewNullDecimal(decimal.NewFromInt(20))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// today returns the calendar day of now at midnight, in now's location.
func (o Options) today() time.Time {
	return truncateDay(o.Now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func emitter(e events.Emitter) events.Emitter {
	if e == nil {
		return events.Nop{}
	}
	return e
}

// forUpdate locks the selected rows until the transaction ends. SQLite
// ignores it and serializes writers instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position").Order("id")
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// ListFilter pages and filters list queries.
type ListFilter struct {
	Status   string
	ClientID uint
	Limit    int
	Offset   int
}

const maxPageSize = 100

func (f ListFilter) page(q *gorm.DB) *gorm.DB {
	limit := f.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return q.Limit(limit).Offset(max(f.Offset, 0))
}

// loadQuote fetches a quote with everything the renderer and notifier need.
func loadQuote(db *gorm.DB, cond ...any) (*models.Quote, error) {
	var q models.Quote
	err := db.Preload("Client").
		Preload("Service").
		Preload("Items", itemsByPosition).
		Preload("Items.Service").
		Take(&q, cond...).Error
	if err != nil {
		return nil, notFound(err, ErrQuoteNotFound)
	}
	return &q, nil
}

func loadInvoice(db *gorm.DB, cond ...any) (*models.Invoice, error) {
	var inv models.Invoice
	err := db.Preload("Client").
		Preload("Quote").
		Preload("Items", itemsByPosition).
		Take(&inv, cond...).Error
	if err != nil {
		return nil, notFound(err, ErrInvoiceNotFound)
	}
	return &inv, nil
}
