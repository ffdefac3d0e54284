package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
)

// QuoteStatus represents the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusInvoiced QuoteStatus = "invoiced"
)

// ErrNumberRequired is returned when a quote or invoice is inserted without
// an allocated number.
var ErrNumberRequired = errors.New("document number must be allocated before insert")

// Quote is a commercial proposal (devis).
type Quote struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Number      string      `gorm:"size:50;uniqueIndex;not null" json:"number"`
	PublicToken string      `gorm:"size:64;uniqueIndex;not null" json:"public_token"`
	Status      QuoteStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	ServiceID      *uint    `gorm:"index" json:"service_id,omitempty"`
	Service        *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	QuoteRequestID *uint    `gorm:"index" json:"quote_request_id,omitempty"`

	IssueDate  time.Time `gorm:"not null" json:"issue_date"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`

	Message      string `gorm:"type:text" json:"message,omitempty"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	// Derived from Items, persisted for listing.
	TotalHT  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_ht"`
	TVA      decimal.Decimal `gorm:"column:tva;type:decimal(12,2);not null" json:"tva"`
	TotalTTC decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_ttc"`

	PDFPath    string     `gorm:"size:500" json:"pdf_path,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	Items       []QuoteItem       `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Validations []QuoteValidation `gorm:"foreignKey:QuoteID" json:"-"`
}

// BeforeCreate refuses unnumbered quotes and generates the public token once.
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.Number == "" {
		return ErrNumberRequired
	}
	if q.Status == "" {
		q.Status = QuoteStatusDraft
	}
	if q.PublicToken == "" {
		tok, err := NewPublicToken()
		if err != nil {
			return err
		}
		q.PublicToken = tok
	}
	return nil
}

// Totals computes the totals of the current items.
func (q *Quote) Totals() money.Totals {
	return money.ComputeTotals(q.Items)
}

// RecomputeTotals refreshes the persisted total fields from the items.
func (q *Quote) RecomputeTotals() money.Totals {
	t := q.Totals()
	q.TotalHT, q.TVA, q.TotalTTC = t.HT, t.TVA, t.TTC
	return t
}

// IsEditable reports whether items may still change.
func (q *Quote) IsEditable() bool {
	return q.Status == QuoteStatusDraft
}

// CanValidate reports whether the client may start a validation.
func (q *Quote) CanValidate() bool {
	return q.Status == QuoteStatusSent
}

// IsExpired reports whether the validity date has passed.
func (q *Quote) IsExpired(now time.Time) bool {
	return !q.ValidUntil.IsZero() && now.After(endOfDay(q.ValidUntil))
}

// QuoteItem is a priced line of a quote. Line totals are derived, never stored.
type QuoteItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuoteID   uint     `gorm:"index;not null" json:"quote_id"`
	ServiceID *uint    `gorm:"index" json:"service_id,omitempty"`
	Service   *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`

	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Position    int             `gorm:"not null;default:0" json:"position"`
}

func (i QuoteItem) LineQuantity() decimal.Decimal  { return i.Quantity }
func (i QuoteItem) LineUnitPrice() decimal.Decimal { return i.UnitPrice }
func (i QuoteItem) LineTaxRate() decimal.Decimal   { return i.TaxRate }

// Totals returns the rounded line amounts.
func (i QuoteItem) Totals() money.LineAmounts {
	return money.LineTotals(i)
}

// Label is the description, or the service title when the description is blank.
func (i QuoteItem) Label() string {
	if d := trimmed(i.Description); d != "" {
		return d
	}
	if i.Service != nil {
		return i.Service.Title
	}
	return ""
}
