// Package notify queues outbound messages as Notification rows. A mail
// transport is expected to drain the outbox; none ships with this module.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
)

// Outbox writes notifications to the database.
type Outbox struct {
	db          *gorm.DB
	logger      *slog.Logger
	baseURL     string
	agencyEmail string
	agencyName  string
}

type Options struct {
	// PublicBaseURL prefixes the client portal links, e.g. https://example.com.
	PublicBaseURL string
	AgencyEmail   string
	AgencyName    string
}

func NewOutbox(db *gorm.DB, logger *slog.Logger, opts Options) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		db:          db,
		logger:      logger,
		baseURL:     strings.TrimRight(opts.PublicBaseURL, "/"),
		agencyEmail: opts.AgencyEmail,
		agencyName:  opts.AgencyName,
	}
}

// PortalURL is the public link of a quote.
func (o *Outbox) PortalURL(q *models.Quote) string {
	return o.baseURL + "/p/" + q.PublicToken
}

// ValidationCode sends the one-time code of v to the quote's client.
func (o *Outbox) ValidationCode(ctx context.Context, q *models.Quote, v *models.QuoteValidation) error {
	to := clientEmail(q)
	if to == "" {
		return fmt.Errorf("quote %s: client has no email", q.Number)
	}
	body := fmt.Sprintf(
		"Bonjour,\n\nVotre code de validation pour le devis %s est : %s\n"+
			"Ce code expire à %s.\n\n%s",
		q.Number, v.Code, v.ExpiresAt.Format("15:04"), o.signature())
	return o.queue(ctx, to, "Code de validation du devis "+q.Number, body, models.OwnerQuote, q.ID)
}

// QuoteSent tells the client their quote is available in the portal.
func (o *Outbox) QuoteSent(ctx context.Context, q *models.Quote) error {
	to := clientEmail(q)
	if to == "" {
		return fmt.Errorf("quote %s: client has no email", q.Number)
	}
	body := fmt.Sprintf(
		"Bonjour,\n\nVotre devis %s d'un montant de %s TTC est disponible :\n%s\n\n"+
			"Il est valable jusqu'au %s.\n\n%s",
		q.Number, money.Format(q.TotalTTC), o.PortalURL(q), q.ValidUntil.Format("02/01/2006"), o.signature())
	return o.queue(ctx, to, "Votre devis "+q.Number, body, models.OwnerQuote, q.ID)
}

// QuoteAccepted confirms the acceptance to the client and warns the agency.
func (o *Outbox) QuoteAccepted(ctx context.Context, q *models.Quote) error {
	var errs []string
	if to := clientEmail(q); to != "" {
		body := fmt.Sprintf("Bonjour,\n\nNous avons bien reçu la validation de votre devis %s.\n"+
			"Nous revenons vers vous très rapidement.\n\n%s", q.Number, o.signature())
		if err := o.queue(ctx, to, "Devis "+q.Number+" validé", body, models.OwnerQuote, q.ID); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if o.agencyEmail != "" {
		body := fmt.Sprintf("Le devis %s (%s TTC) a été validé par %s.",
			q.Number, money.Format(q.TotalTTC), clientName(q))
		if err := o.queue(ctx, o.agencyEmail, "Devis "+q.Number+" accepté", body, models.OwnerQuote, q.ID); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("quote accepted notifications: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InvoiceCreated sends the new invoice to its client.
func (o *Outbox) InvoiceCreated(ctx context.Context, inv *models.Invoice) error {
	if inv.Client == nil || inv.Client.Email == "" {
		return fmt.Errorf("invoice %s: client has no email", inv.Number)
	}
	body := fmt.Sprintf(
		"Bonjour,\n\nVeuillez trouver votre facture %s d'un montant de %s TTC, "+
			"payable avant le %s.\n\n%s",
		inv.Number, money.Format(inv.TotalTTC), inv.DueDate.Format("02/01/2006"), o.signature())
	return o.queue(ctx, inv.Client.Email, "Facture "+inv.Number, body, models.OwnerInvoice, inv.ID)
}

// LeadSubmitted warns the agency about a new quote request.
func (o *Outbox) LeadSubmitted(ctx context.Context, r *models.QuoteRequest) error {
	if o.agencyEmail == "" {
		return nil
	}
	body := fmt.Sprintf("Nouvelle demande de devis de %s <%s>.\n\n%s", r.Name, r.Email, r.Message)
	return o.queue(ctx, o.agencyEmail, "Nouvelle demande de devis", body, "quote_request", r.ID)
}

// Pending lists the notifications not yet picked up by a transport.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := o.db.WithContext(ctx).Where("sent_at IS NULL").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return out, nil
}

// MarkSent flags a notification as delivered.
func (o *Outbox) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return o.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("sent_at", at).Error
}

func (o *Outbox) queue(ctx context.Context, to, subject, body, entityType string, entityID uint) error {
	n := models.Notification{
		Channel:    models.NotificationChannelEmail,
		Recipient:  to,
		Subject:    subject,
		Body:       body,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := o.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	o.logger.Info("notification queued", "id", n.ID, "to", to, "subject", subject)
	return nil
}

func (o *Outbox) signature() string {
	if o.agencyName == "" {
		return "Cordialement."
	}
	return "Cordialement,\n" + o.agencyName
}

func clientEmail(q *models.Quote) string {
	if q.Client == nil {
		return ""
	}
	return q.Client.Email
}

func clientName(q *models.Quote) string {
	if q.Client == nil {
		return "le client"
	}
	return q.Client.DisplayName()
}
