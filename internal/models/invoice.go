package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a billing invoice, usually derived from an accepted quote.
type Invoice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Number string        `gorm:"size:50;uniqueIndex;not null" json:"number"`
	Status InvoiceStatus `gorm:"size:20;not null;default:'draft';index" json:"status"`

	// QuoteID is unique: a quote yields at most one invoice.
	QuoteID *uint  `gorm:"uniqueIndex" json:"quote_id,omitempty"`
	Quote   *Quote `gorm:"foreignKey:QuoteID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	Notes        string `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms string `gorm:"size:500" json:"payment_terms,omitempty"`

	Discount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	TotalHT  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_ht"`
	TVA      decimal.Decimal `gorm:"column:tva;type:decimal(12,2);not null" json:"tva"`
	TotalTTC decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_ttc"`

	PDFPath string `gorm:"size:500" json:"pdf_path,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// BeforeCreate refuses unnumbered invoices.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.Number == "" {
		return ErrNumberRequired
	}
	if i.Status == "" {
		i.Status = InvoiceStatusDraft
	}
	return nil
}

// Totals returns the stored totals, frozen from the quote at derivation.
// The per-rate breakdown comes from the items. An invoice with no stored
// totals yet is computed from its items entirely.
func (i *Invoice) Totals() money.Totals {
	t := money.ComputeTotals(i.Items).WithDiscount(i.Discount)
	if i.TotalHT.IsZero() && i.TVA.IsZero() && i.TotalTTC.IsZero() {
		return t
	}
	t.Subtotal = i.TotalHT.Add(i.Discount)
	t.Discount = i.Discount
	t.HT, t.TVA, t.TTC = i.TotalHT, i.TVA, i.TotalTTC
	return t
}

// IsOverdue reports whether a sent invoice is past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status != InvoiceStatusSent && i.Status != InvoiceStatusOverdue {
		return false
	}
	return !i.DueDate.IsZero() && now.After(endOfDay(i.DueDate))
}

// DisplayStatus is the status shown to users: sent invoices past due read as overdue.
func (i *Invoice) DisplayStatus(now time.Time) InvoiceStatus {
	if i.Status == InvoiceStatusSent && i.IsOverdue(now) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// InvoiceItem is a line of an invoice. Quantities are whole units.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID   uint            `gorm:"index;not null" json:"invoice_id"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Position    int             `gorm:"not null;default:0" json:"position"`
}

func (i InvoiceItem) LineQuantity() decimal.Decimal  { return decimal.NewFromInt(int64(i.Quantity)) }
func (i InvoiceItem) LineUnitPrice() decimal.Decimal { return i.UnitPrice }
func (i InvoiceItem) LineTaxRate() decimal.Decimal   { return i.TaxRate }

// Totals returns the rounded line amounts.
func (i InvoiceItem) Totals() money.LineAmounts {
	return money.LineTotals(i)
}
