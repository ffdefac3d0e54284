package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/events"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/numbering"
	"github.com/beaudelaire1/trait-d-union-sub000/validation"
)

var hundred = decimal.NewFromInt(100)

type QuoteService struct {
	db     *gorm.DB
	alloc  *numbering.Allocator
	events events.Emitter
	opts   Options
}

func NewQuoteService(db *gorm.DB, alloc *numbering.Allocator, em events.Emitter, opts Options) *QuoteService {
	return &QuoteService{db: db, alloc: alloc, events: emitter(em), opts: opts.withDefaults()}
}

type ItemParams struct {
	ServiceID   *uint            `json:"service_id,omitempty"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

type CreateQuoteParams struct {
	ClientID       uint         `json:"client_id"`
	ServiceID      *uint        `json:"service_id,omitempty"`
	QuoteRequestID *uint        `json:"quote_request_id,omitempty"`
	IssueDate      time.Time    `json:"issue_date"`
	ValidUntil     time.Time    `json:"valid_until"`
	Message        string       `json:"message"`
	Notes          string       `json:"notes"`
	PaymentTerms   string       `json:"payment_terms"`
	Items          []ItemParams `json:"items"`
}

func (s *QuoteService) validate(ctx context.Context, p CreateQuoteParams) error {
	v := validation.Violations{}
	if p.ClientID == 0 {
		v["client_id"] = "required"
	} else {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", p.ClientID).Count(&n).Error; err != nil {
			return fmt.Errorf("check client: %w", err)
		}
		if n == 0 {
			v["client_id"] = "not_found"
		}
	}
	if !p.IssueDate.IsZero() && !p.ValidUntil.IsZero() && p.ValidUntil.Before(p.IssueDate) {
		v["valid_until"] = "out_of_range"
	}
	for i, it := range p.Items {
		field := fmt.Sprintf("items[%d].", i)
		if strings.TrimSpace(it.Description) == "" && it.ServiceID == nil {
			v[field+"description"] = "required"
		}
		validation.PositiveDecimal(field+"quantity", it.Quantity, v)
		if it.UnitPrice.IsNegative() {
			v[field+"unit_price"] = "must_be_positive"
		}
		if it.TaxRate != nil {
			validation.RangeDecimal(field+"tax_rate", *it.TaxRate, decimal.Zero, hundred, v)
		}
	}
	return v.Err()
}

func (s *QuoteService) buildItems(items []ItemParams) []models.QuoteItem {
	out := make([]models.QuoteItem, 0, len(items))
	for i, it := range items {
		rate := s.opts.DefaultTaxRate.Decimal
		if it.TaxRate != nil {
			rate = *it.TaxRate
		}
		out = append(out, models.QuoteItem{
			ServiceID:   it.ServiceID,
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     rate,
			Position:    i,
		})
	}
	return out
}

// Create inserts a draft quote and its items under a freshly allocated number.
func (s *QuoteService) Create(ctx context.Context, p CreateQuoteParams) (*models.Quote, error) {
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	q := &models.Quote{
		Status:         models.QuoteStatusDraft,
		ClientID:       p.ClientID,
		ServiceID:      p.ServiceID,
		QuoteRequestID: p.QuoteRequestID,
		IssueDate:      p.IssueDate,
		ValidUntil:     p.ValidUntil,
		Message:        p.Message,
		Notes:          p.Notes,
		PaymentTerms:   p.PaymentTerms,
		Items:          s.buildItems(p.Items),
	}
	if err := s.insert(ctx, q, nil, nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, q.ID)
}

// insert allocates the number and creates q with its items. before and
// after, when set, run in the same transaction around the insert.
func (s *QuoteService) insert(ctx context.Context, q *models.Quote, before, after func(tx *gorm.DB) error) error {
	if q.IssueDate.IsZero() {
		q.IssueDate = s.opts.today()
	}
	if q.ValidUntil.IsZero() {
		q.ValidUntil = q.IssueDate.AddDate(0, 0, s.opts.QuoteValidityDays)
	}
	q.RecomputeTotals()

	err := s.alloc.Within(ctx, s.db, numbering.Quote, q.IssueDate, func(tx *gorm.DB, number string) error {
		// A retried attempt starts from a clean slate.
		q.ID = 0
		for i := range q.Items {
			q.Items[i].ID = 0
		}
		q.Number = number
		if before != nil {
			if err := before(tx); err != nil {
				return err
			}
		}
		if err := tx.Omit("Client", "Service").Create(q).Error; err != nil {
			return err
		}
		if after != nil {
			return after(tx)
		}
		return nil
	})
	if err != nil {
		q.Number = ""
		return fmt.Errorf("create quote: %w", err)
	}
	return nil
}

// CreateFromRequest turns a lead into a draft quote for the client matching
// the lead's email, creating the client when needed.
func (s *QuoteService) CreateFromRequest(ctx context.Context, requestID uint) (*models.Quote, error) {
	var req models.QuoteRequest
	if err := s.db.WithContext(ctx).Preload("Service").Take(&req, requestID).Error; err != nil {
		return nil, notFound(err, ErrQuoteRequestNotFound)
	}
	if req.Status == models.QuoteRequestStatusProcessed {
		return nil, fmt.Errorf("%w: request %d", ErrRequestProcessed, req.ID)
	}

	q := &models.Quote{
		Status:         models.QuoteStatusDraft,
		ServiceID:      req.ServiceID,
		QuoteRequestID: &req.ID,
		Message:        req.Message,
	}
	if req.Service != nil {
		q.Items = []models.QuoteItem{{
			ServiceID:   &req.Service.ID,
			Description: req.Service.Title,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   req.Service.BasePrice,
			TaxRate:     s.opts.DefaultTaxRate.Decimal,
		}}
	}

	attachClient := func(tx *gorm.DB) error {
		client, err := findOrCreateByEmail(tx, &req)
		if err != nil {
			return fmt.Errorf("client for request %d: %w", req.ID, err)
		}
		q.ClientID = client.ID
		return nil
	}
	err := s.insert(ctx, q, attachClient, func(tx *gorm.DB) error {
		res := tx.Model(&models.QuoteRequest{}).
			Where("id = ? AND status = ?", req.ID, models.QuoteRequestStatusNew).
			Updates(map[string]any{
				"status":       models.QuoteRequestStatusProcessed,
				"processed_at": s.opts.Now(),
				"quote_id":     q.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request %d", ErrRequestProcessed, req.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, q.ID)
}

func (s *QuoteService) Get(ctx context.Context, id uint) (*models.Quote, error) {
	return loadQuote(s.db.WithContext(ctx), id)
}

// GetByPublicToken resolves the client portal link of a quote.
func (s *QuoteService) GetByPublicToken(ctx context.Context, token string) (*models.Quote, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrQuoteNotFound
	}
	return loadQuote(s.db.WithContext(ctx), "public_token = ?", token)
}

func (s *QuoteService) List(ctx context.Context, f ListFilter) ([]models.Quote, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.ClientID != 0 {
			db = db.Where("client_id = ?", f.ClientID)
		}
		return db
	}
	var (
		out   []models.Quote
		total int64
	)
	if err := s.db.WithContext(ctx).Model(&models.Quote{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}
	err := f.page(s.db.WithContext(ctx)).Scopes(scope).
		Preload("Client").
		Order("issue_date DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	return out, total, nil
}

// Save persists q and its items with fresh totals. The number is allocated
// only when q has none; items missing from q.Items are removed.
func (s *QuoteService) Save(ctx context.Context, q *models.Quote) error {
	if q.ID == 0 && q.Number == "" {
		return s.insert(ctx, q, nil, nil)
	}
	q.RecomputeTotals()
	if q.Number == "" {
		if q.IssueDate.IsZero() {
			q.IssueDate = s.opts.today()
		}
		return s.alloc.Within(ctx, s.db, numbering.Quote, q.IssueDate, func(tx *gorm.DB, number string) error {
			q.Number = number
			return saveQuote(tx, q)
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveQuote(tx, q)
	})
}

func saveQuote(tx *gorm.DB, q *models.Quote) error {
	if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	keep := make([]uint, 0, len(q.Items))
	for i := range q.Items {
		it := &q.Items[i]
		it.QuoteID = q.ID
		if err := tx.Omit("Service").Save(it).Error; err != nil {
			return fmt.Errorf("save quote item: %w", err)
		}
		keep = append(keep, it.ID)
	}
	del := tx.Where("quote_id = ?", q.ID)
	if len(keep) > 0 {
		del = del.Where("id NOT IN ?", keep)
	}
	return del.Delete(&models.QuoteItem{}).Error
}

// RecomputeTotals refreshes the persisted totals of a quote from its items.
func (s *QuoteService) RecomputeTotals(ctx context.Context, id uint) (*models.Quote, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.RecomputeTotals()
	err = s.db.WithContext(ctx).Model(q).Updates(map[string]any{
		"total_ht":  q.TotalHT,
		"tva":       q.TVA,
		"total_ttc": q.TotalTTC,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}
	return q, nil
}

// Send moves a draft quote to sent and emits quote.sent.
func (s *QuoteService) Send(ctx context.Context, id uint) (*models.Quote, error) {
	now := s.opts.Now()
	q, err := s.transition(ctx, id, models.QuoteStatusDraft, models.QuoteStatusSent, func(tx *gorm.DB, q *models.Quote) error {
		var items []models.QuoteItem
		if err := tx.Where("quote_id = ?", q.ID).Find(&items).Error; err != nil {
			return err
		}
		q.Items = items
		q.RecomputeTotals()
		return tx.Model(q).Updates(map[string]any{
			"status":    models.QuoteStatusSent,
			"sent_at":   now,
			"total_ht":  q.TotalHT,
			"tva":       q.TVA,
			"total_ttc": q.TotalTTC,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.Event{Name: events.QuoteSent, Payload: q})
	return q, nil
}

// Reject closes a sent quote. Pending validations are withdrawn.
func (s *QuoteService) Reject(ctx context.Context, id uint) (*models.Quote, error) {
	q, err := s.transition(ctx, id, models.QuoteStatusSent, models.QuoteStatusRejected, func(tx *gorm.DB, q *models.Quote) error {
		if err := tx.Where("quote_id = ? AND confirmed_at IS NULL", q.ID).Delete(&models.QuoteValidation{}).Error; err != nil {
			return err
		}
		return tx.Model(q).Update("status", models.QuoteStatusRejected).Error
	})
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, events.Event{Name: events.QuoteRejected, Payload: q})
	return q, nil
}

func (s *QuoteService) transition(ctx context.Context, id uint, from, to models.QuoteStatus, apply func(tx *gorm.DB, q *models.Quote) error) (*models.Quote, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := forUpdate(tx).Take(&q, id).Error; err != nil {
			return notFound(err, ErrQuoteNotFound)
		}
		if q.Status != from {
			return &TransitionError{Entity: "quote " + q.Number, From: string(q.Status), To: string(to)}
		}
		return apply(tx, &q)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
