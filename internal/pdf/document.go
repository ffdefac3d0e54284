package pdf

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
)

// Kind tells quotes and invoices apart; a few blocks differ between them.
type Kind int

const (
	KindQuote Kind = iota
	KindInvoice
)

// Line is a priced row of the item table.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	TotalTTC    decimal.Decimal
}

// Document is everything the renderer draws, independent of the storage model.
type Document struct {
	Kind      Kind
	Title     string
	Number    string
	Watermark string
	IssueDate time.Time
	// DueLabel names DueDate: validity for quotes, due date for invoices.
	DueLabel  string
	DueDate   time.Time
	Reference string
	Client    *models.Client
	Lines     []Line
	Totals    money.Totals
	Notes     string
	Terms     string
}

var quoteWatermarks = map[models.QuoteStatus]string{
	models.QuoteStatusDraft:    "BROUILLON",
	models.QuoteStatusSent:     "ENVOYÉ",
	models.QuoteStatusAccepted: "ACCEPTÉ",
	models.QuoteStatusRejected: "REFUSÉ",
	models.QuoteStatusInvoiced: "FACTURÉ",
}

var invoiceWatermarks = map[models.InvoiceStatus]string{
	models.InvoiceStatusDraft:     "BROUILLON",
	models.InvoiceStatusSent:      "ÉMISE",
	models.InvoiceStatusPaid:      "PAYÉE",
	models.InvoiceStatusOverdue:   "EN RETARD",
	models.InvoiceStatusCancelled: "ANNULÉE",
}

const defaultWatermark = "DOCUMENT"

func watermarkOr(label string, ok bool) string {
	if !ok {
		return defaultWatermark
	}
	return label
}

// FromQuote builds the document of a quote. Items must be loaded.
func FromQuote(q *models.Quote) Document {
	label, ok := quoteWatermarks[q.Status]
	doc := Document{
		Kind:      KindQuote,
		Title:     "DEVIS",
		Number:    q.Number,
		Watermark: watermarkOr(label, ok),
		IssueDate: q.IssueDate,
		DueLabel:  "Valable jusqu'au",
		DueDate:   q.ValidUntil,
		Client:    q.Client,
		Totals:    q.Totals(),
		Notes:     q.Notes,
		Terms:     q.PaymentTerms,
	}
	for _, it := range q.Items {
		doc.Lines = append(doc.Lines, Line{
			Description: it.Label(),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			TotalTTC:    it.Totals().TTC,
		})
	}
	return doc
}

// FromInvoice builds the document of an invoice. The watermark follows the
// displayed status, so a sent invoice past due reads as overdue.
func FromInvoice(inv *models.Invoice, now time.Time) Document {
	label, ok := invoiceWatermarks[inv.DisplayStatus(now)]
	doc := Document{
		Kind:      KindInvoice,
		Title:     "FACTURE",
		Number:    inv.Number,
		Watermark: watermarkOr(label, ok),
		IssueDate: inv.IssueDate,
		DueLabel:  "Échéance",
		DueDate:   inv.DueDate,
		Client:    inv.Client,
		Totals:    inv.Totals(),
		Notes:     inv.Notes,
		Terms:     inv.PaymentTerms,
	}
	if inv.Quote != nil && inv.Quote.Number != "" {
		doc.Reference = "Devis " + inv.Quote.Number
	}
	for _, it := range inv.Items {
		doc.Lines = append(doc.Lines, Line{
			Description: it.Description,
			Quantity:    it.LineQuantity(),
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			TotalTTC:    it.Totals().TTC,
		})
	}
	return doc
}

// amountSentence closes the totals block with the amount in words.
func (d Document) amountSentence() string {
	subject := "le présent devis"
	if d.Kind == KindInvoice {
		subject = "la présente facture"
	}
	return "Arrêté " + subject + " à la somme de " + money.InWords(d.Totals.TTC) + "."
}
