package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/beaudelaire1/trait-d-union-sub000/httpx"
	"github.com/beaudelaire1/trait-d-union-sub000/i18n"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/documents"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/services"
)

// PortalHandler serves the client side of a quote, addressed by its public
// token: consultation, PDF download and the code-based acceptance.
type PortalHandler struct {
	quotes      *services.QuoteService
	validations *services.ValidationService
	docs        Documents
}

func NewPortalHandler(quotes *services.QuoteService, validations *services.ValidationService, docs Documents) *PortalHandler {
	return &PortalHandler{quotes: quotes, validations: validations, docs: docs}
}

func (h *PortalHandler) Routes(r chi.Router) {
	r.Post("/validations/{token}/confirm", h.confirm)
	r.Get("/{token}", h.show)
	r.Get("/{token}/pdf", h.pdf)
	r.Post("/{token}/validate", h.start)
}

type portalItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TotalTTC    decimal.Decimal `json:"total_ttc"`
}

// portalQuote is what a client sees; internal ids and paths stay out.
type portalQuote struct {
	Number     string             `json:"number"`
	Status     models.QuoteStatus `json:"status"`
	IssueDate  time.Time          `json:"issue_date"`
	ValidUntil time.Time          `json:"valid_until"`
	ClientName string             `json:"client_name,omitempty"`
	Message    string             `json:"message,omitempty"`
	Items      []portalItem       `json:"items"`
	TotalHT    decimal.Decimal    `json:"total_ht"`
	TVA        decimal.Decimal    `json:"tva"`
	TotalTTC   decimal.Decimal    `json:"total_ttc"`
	CanAccept  bool               `json:"can_accept"`
}

func toPortalQuote(q *models.Quote) portalQuote {
	t := q.Totals()
	out := portalQuote{
		Number:     q.Number,
		Status:     q.Status,
		IssueDate:  q.IssueDate,
		ValidUntil: q.ValidUntil,
		Message:    q.Message,
		Items:      make([]portalItem, 0, len(q.Items)),
		TotalHT:    t.HT,
		TVA:        t.TVA,
		TotalTTC:   t.TTC,
		CanAccept:  q.CanValidate(),
	}
	if q.Client != nil {
		out.ClientName = q.Client.FullName
	}
	for _, it := range q.Items {
		out.Items = append(out.Items, portalItem{
			Description: it.Label(),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			TotalTTC:    it.Totals().TTC,
		})
	}
	return out
}

func (h *PortalHandler) show(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.GetByPublicToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPortalQuote(q))
}

func (h *PortalHandler) pdf(w http.ResponseWriter, r *http.Request) {
	q, err := h.quotes.GetByPublicToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := h.docs.Quote(r.Context(), q, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httpx.Bytes(w, http.StatusOK, "application/pdf", documents.FileName(q.Number), data)
}

type startResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// start issues a code. The code itself only travels by e-mail.
func (h *PortalHandler) start(w http.ResponseWriter, r *http.Request) {
	res, err := h.validations.Start(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	logSideEffects(r, "validation.start", res.SideEffectErrors)
	httpx.JSON(w, http.StatusCreated, startResponse{
		Token:     res.Validation.Token,
		ExpiresAt: res.Validation.ExpiresAt,
		Message:   i18n.T(lang(r), "validation_code_sent"),
	})
}

type confirmRequest struct {
	Code string `json:"code"`
}

type confirmResponse struct {
	Status  models.QuoteStatus `json:"status"`
	Number  string             `json:"number,omitempty"`
	Message string             `json:"message"`
}

type invalidCodeDetails struct {
	Message      string `json:"message"`
	AttemptsLeft int    `json:"attempts_left"`
}

func (h *PortalHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w, r)
		return
	}
	res, err := h.validations.Confirm(r.Context(), chi.URLParam(r, "token"), req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !res.Confirmed {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_code", invalidCodeDetails{
			Message:      i18n.T(lang(r), "invalid_code"),
			AttemptsLeft: res.AttemptsLeft,
		})
		return
	}
	logSideEffects(r, "validation.confirm", res.SideEffectErrors)

	out := confirmResponse{Status: models.QuoteStatusAccepted, Message: i18n.T(lang(r), "quote_accepted")}
	if res.Quote != nil {
		out.Status = res.Quote.Status
		out.Number = res.Quote.Number
	}
	httpx.JSON(w, http.StatusOK, out)
}
