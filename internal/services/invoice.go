package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/numbering"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

type InvoiceService struct {
	db     *gorm.DB
	alloc  *numbering.Allocator
	events events.Emitter
	opts   Options
}

func NewInvoiceService(db *gorm.DB, alloc *numbering.Allocator, em events.Emitter, opts Options) *InvoiceService {
	return &InvoiceService{db: db, alloc: alloc, events: emitter(em), opts: opts.withDefaults()}
}

// CreateFromQuote derives the invoice of an accepted quote. Everything
// happens in one transaction holding the quote row: the invoice and its
// items are created and the quote becomes invoiced, or nothing changes.
func (s *InvoiceService) CreateFromQuote(ctx context.Context, quoteID uint) (*models.Invoice, error) {
	today := s.opts.today()
	var inv *models.Invoice

	err := s.alloc.Within(ctx, s.db, numbering.Invoice, today, func(tx *gorm.DB, number string) error {
		var q models.Quote
		if err := forUpdate(tx).Take(&q, quoteID).Error; err != nil {
			return notFound(err, ErrQuoteNotFound)
		}

		var existing int64
		if err := tx.Unscoped().Model(&models.Invoice{}).Where("quote_id = ?", q.ID).Count(&existing).Error; err != nil {
			return fmt.Errorf("check existing invoice: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrQuoteAlreadyInvoiced, q.Number)
		}
		if q.Status != models.QuoteStatusAccepted {
			return &QuoteStatusError{Number: q.Number, Status: q.Status, Want: models.QuoteStatusAccepted}
		}

		if err := tx.Preload("Service").Scopes(itemsByPosition).
			Where("quote_id = ?", q.ID).Find(&q.Items).Error; err != nil {
			return fmt.Errorf("load quote items: %w", err)
		}
		q.RecomputeTotals()

		inv = &models.Invoice{
			Number:       number,
			Status:       models.InvoiceStatusDraft,
			QuoteID:      &q.ID,
			ClientID:     q.ClientID,
			IssueDate:    today,
			DueDate:      today.AddDate(0, 0, s.opts.PaymentDelayDays),
			Notes:        q.Message,
			PaymentTerms: q.PaymentTerms,
			TotalHT:      q.TotalHT,
			TVA:          q.TVA,
			TotalTTC:     q.TotalTTC,
			Items:        invoiceItems(q.Items),
		}
		if err := tx.Omit("Quote", "Client").Create(inv).Error; err != nil {
			return err
		}

		return tx.Model(&q).Updates(map[string]any{
			"status":    models.QuoteStatusInvoiced,
			"total_ht":  q.TotalHT,
			"tva":       q.TVA,
			"total_ttc": q.TotalTTC,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	out, err := s.Get(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.Event{Name: events.InvoiceCreated, Payload: out})
	return out, nil
}

func invoiceItems(items []models.QuoteItem) []models.InvoiceItem {
	out := make([]models.InvoiceItem, 0, len(items))
	for i, it := range items {
		out = append(out, models.InvoiceItem{
			Description: it.Label(),
			Quantity:    money.RoundQuantity(it.Quantity),
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Position:    i,
		})
	}
	return out
}

func (s *InvoiceService) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	return loadInvoice(s.db.WithContext(ctx), id)
}

// List filters by status; "overdue" also matches sent invoices past due.
func (s *InvoiceService) List(ctx context.Context, f ListFilter) ([]models.Invoice, int64, error) {
	today := s.opts.today()
	scope := func(db *gorm.DB) *gorm.DB {
		switch models.InvoiceStatus(f.Status) {
		case "":
		case models.InvoiceStatusOverdue:
			db = db.Where("status = ? OR (status = ? AND due_date < ?)",
				models.InvoiceStatusOverdue, models.InvoiceStatusSent, today)
		default:
			db = db.Where("status = ?", f.Status)
		}
		if f.ClientID != 0 {
			db = db.Where("client_id = ?", f.ClientID)
		}
		return db
	}
	var (
		out   []models.Invoice
		total int64
	)
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	err := f.page(s.db.WithContext(ctx)).Scopes(scope).
		Preload("Client").
		Order("issue_date DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return out, total, nil
}

// SetDiscount applies an HT discount to a draft invoice. The stored totals
// are recomputed from the source quote, so zero removes the discount.
func (s *InvoiceService) SetDiscount(ctx context.Context, id uint, discount decimal.Decimal) (*models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := forUpdate(tx).Take(&inv, id).Error; err != nil {
			return notFound(err, ErrInvoiceNotFound)
		}
		if inv.Status != models.InvoiceStatusDraft {
			return &TransitionError{Entity: "invoice " + inv.Number, From: string(inv.Status), To: "discounted"}
		}

		var base money.Totals
		if inv.QuoteID != nil {
			var items []models.QuoteItem
			if err := tx.Where("quote_id = ?", *inv.QuoteID).Find(&items).Error; err != nil {
				return fmt.Errorf("load quote items: %w", err)
			}
			base = money.ComputeTotals(items)
		} else {
			if err := tx.Where("invoice_id = ?", inv.ID).Find(&inv.Items).Error; err != nil {
				return fmt.Errorf("load invoice items: %w", err)
			}
			base = money.ComputeTotals(inv.Items)
		}

		v := validation.Violations{}
		validation.RangeDecimal("discount", discount, decimal.Zero, base.Subtotal, v)
		if err := v.Err(); err != nil {
			return err
		}

		t := base.WithDiscount(discount)
		return tx.Model(&inv).Updates(map[string]any{
			"discount":  t.Discount,
			"total_ht":  t.HT,
			"tva":       t.TVA,
			"total_ttc": t.TTC,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// MarkSent issues a draft invoice to the client.
func (s *InvoiceService) MarkSent(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.transition(ctx, id, models.InvoiceStatusSent, map[string]any{"status": models.InvoiceStatusSent},
		models.InvoiceStatusDraft)
}

// MarkPaid records the payment of a sent or overdue invoice.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (*models.Invoice, error) {
	if paidAt.IsZero() {
		paidAt = s.opts.Now()
	}
	return s.transition(ctx, id, models.InvoiceStatusPaid,
		map[string]any{"status": models.InvoiceStatusPaid, "paid_at": paidAt},
		models.InvoiceStatusSent, models.InvoiceStatusOverdue)
}

func (s *InvoiceService) transition(ctx context.Context, id uint, to models.InvoiceStatus, updates map[string]any, from ...models.InvoiceStatus) (*models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := forUpdate(tx).Take(&inv, id).Error; err != nil {
			return notFound(err, ErrInvoiceNotFound)
		}
		allowed := false
		for _, f := range from {
			if inv.Status == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return &TransitionError{Entity: "invoice " + inv.Number, From: string(inv.Status), To: string(to)}
		}
		return tx.Model(&inv).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
