// Package pdf renders quotes and invoices as A4 PDF documents.
package pdf

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/beaudelaire1/trait-d-union-sub000/internal/config"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/models"
	"github.com/beaudelaire1/trait-d-union-sub000/internal/money"
)

const dateLayout = "02/01/2006"

// Renderer turns quotes and invoices into PDF bytes with the agency branding.
// It is safe for concurrent use; every call builds its own document.
type Renderer struct {
	brand    config.BrandingConfig
	logger   *slog.Logger
	now      func() time.Time
	compress bool
}

func New(brand config.BrandingConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{brand: brand, logger: logger, now: time.Now, compress: true}
}

// WithClock overrides the clock deciding whether an invoice is overdue.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	cp := *r
	cp.now = now
	return &cp
}

// RenderQuote renders a quote loaded with its client and items.
func (r *Renderer) RenderQuote(q *models.Quote) ([]byte, error) {
	return r.Render(FromQuote(q))
}

// RenderInvoice renders an invoice loaded with its client, items and quote.
func (r *Renderer) RenderInvoice(inv *models.Invoice) ([]byte, error) {
	return r.Render(FromInvoice(inv, r.now()))
}

// Render draws doc. Missing assets (logo, fonts, QR code) are logged and
// skipped; only a failure of the PDF writer itself is returned.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	c := &canvas{
		pdf:    gofpdf.New("P", "mm", "A4", ""),
		brand:  r.brand,
		doc:    doc,
		logger: r.logger.With("document", doc.Number),
		color:  parseColor(r.brand.Color, r.logger),
	}
	c.pdf.SetMargins(margin, margin, margin)
	c.pdf.SetAutoPageBreak(false, 0)
	c.pdf.SetCompression(r.compress)
	c.pdf.AliasNbPages("")
	c.pdf.SetTitle(doc.Title+" "+doc.Number, true)
	c.pdf.SetCreator(r.brand.Name, true)
	c.setupFonts(r.brand.FontRegular, r.brand.FontBold)
	c.logo = c.loadLogo(r.brand.LogoPath)
	c.pdf.SetFooterFunc(c.footer)

	c.draw()

	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.Number, err)
	}
	return buf.Bytes(), nil
}

type canvas struct {
	pdf    *gofpdf.Fpdf
	brand  config.BrandingConfig
	doc    Document
	logger *slog.Logger
	color  [3]int
	logo   *logo

	family string
	utf8   bool
	tr     func(string) string

	y float64
}

func (c *canvas) draw() {
	c.newPage()
	c.header()
	c.callout()
	c.panels()
	c.y = tableTop
	c.table()
	c.totals()
	c.textBox("Notes", firstNonEmpty(c.doc.Notes, c.brand.DefaultNotes))
	c.textBox("Conditions de paiement", firstNonEmpty(c.doc.Terms, c.brand.DefaultTerms))
	if c.doc.Kind == KindQuote && c.brand.ShowSignature {
		c.signature()
	}
}

// newPage starts a page with the band and the watermark.
func (c *canvas) newPage() {
	c.pdf.AddPage()
	c.pdf.SetFillColor(c.color[0], c.color[1], c.color[2])
	c.pdf.Rect(0, 0, pageW, bandH, "F")
	c.watermark()
	c.y = contentTop
}

// ensure moves to a continuation page when h millimetres do not fit.
func (c *canvas) ensure(h float64) {
	if c.y+h > bottomLimit {
		c.newPage()
	}
}

func (c *canvas) watermark() {
	label := c.doc.Watermark
	c.setFont("B", 60)
	c.pdf.SetTextColor(190, 190, 190)
	c.pdf.SetAlpha(0.2, "Normal")
	w := c.pdf.GetStringWidth(c.tr(label))
	cx, cy := pageW/2, pageH/2
	c.pdf.TransformBegin()
	c.pdf.TransformRotate(45, cx, cy)
	c.pdf.Text(cx-w/2, cy+7, c.tr(label))
	c.pdf.TransformEnd()
	c.pdf.SetAlpha(1, "Normal")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *canvas) header() {
	x := margin
	if c.logo != nil {
		c.drawLogo(c.logo, margin, headerTop)
		x += c.logo.w + 4
	}
	issuerW := pageW - margin - 72 - x

	c.setFont("B", 14)
	c.pdf.SetTextColor(c.color[0], c.color[1], c.color[2])
	c.cell(x, headerTop, issuerW, 7, c.brand.Name, "L")
	c.pdf.SetTextColor(90, 90, 90)
	c.setFont("", 9)
	y := headerTop + 7
	for _, s := range []string{c.brand.Tagline, joinNonEmpty(" · ", c.brand.Email, c.brand.Phone, c.brand.Website)} {
		if s == "" {
			continue
		}
		c.cell(x, y, issuerW, lineH, s, "L")
		y += lineH
	}

	right := pageW - margin - 70
	c.pdf.SetTextColor(c.color[0], c.color[1], c.color[2])
	c.setFont("B", 18)
	c.cell(right, headerTop, 70, 9, c.doc.Title, "R")
	c.pdf.SetTextColor(0, 0, 0)
	c.setFont("B", 10)
	c.cell(right, headerTop+9, 70, 5, "N° "+c.doc.Number, "R")
	c.setFont("", 9)
	y = headerTop + 14
	lines := []string{"Date : " + formatDate(c.doc.IssueDate)}
	if !c.doc.DueDate.IsZero() {
		lines = append(lines, c.doc.DueLabel+" : "+formatDate(c.doc.DueDate))
	}
	if c.doc.Reference != "" {
		lines = append(lines, "Réf. : "+c.doc.Reference)
	}
	for _, s := range lines {
		c.cell(right, y, 70, lineH, s, "R")
		y += lineH
	}
}

// callout shows the total TTC below the header, first page only.
func (c *canvas) callout() {
	x := pageW - margin - calloutW
	c.pdf.SetFillColor(c.color[0], c.color[1], c.color[2])
	c.pdf.Rect(x, calloutTop, calloutW, calloutH, "F")
	c.pdf.SetTextColor(255, 255, 255)
	c.setFont("", 9)
	c.cell(x+3, calloutTop+2, calloutW-6, 4, "Total TTC", "L")
	c.setFont("B", 15)
	c.cell(x+3, calloutTop+7, calloutW-6, 7, money.Format(c.doc.Totals.TTC), "R")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *canvas) panels() {
	w := (contentW - panelGap) / 2
	issuer := []string{c.brand.Name}
	issuer = append(issuer, c.brand.AddressLines...)
	issuer = append(issuer, joinNonEmpty(" · ", c.brand.Phone, c.brand.Website))
	if c.brand.TaxID != "" {
		issuer = append(issuer, "TVA : "+c.brand.TaxID)
	}
	c.panel(margin, "Émetteur", issuer, w)

	var client []string
	if cl := c.doc.Client; cl != nil {
		client = append(client, cl.DisplayName())
		if cl.Company != "" && cl.FullName != "" {
			client = append(client, cl.FullName)
		}
		client = append(client, joinNonEmpty(" · ", cl.Email, cl.Phone))
		client = append(client, strings.Split(cl.FullAddress(), "\n")...)
	}
	c.panel(margin+w+panelGap, "Client", client, w)
}

func (c *canvas) panel(x float64, title string, lines []string, w float64) {
	c.pdf.SetDrawColor(210, 210, 210)
	c.pdf.SetFillColor(240, 243, 247)
	c.pdf.Rect(x, panelTop, w, panelH, "D")
	c.pdf.Rect(x, panelTop, w, 6, "F")
	c.setFont("B", 9)
	c.pdf.SetTextColor(c.color[0], c.color[1], c.color[2])
	c.cell(x+2, panelTop+1, w-4, 4, title, "L")
	c.pdf.SetTextColor(0, 0, 0)

	y := panelTop + 7.5
	for i, s := range lines {
		if s == "" {
			continue
		}
		if y+4 > panelTop+panelH {
			break
		}
		style := ""
		if i == 0 {
			style = "B"
		}
		c.setFont(style, 9)
		c.cell(x+2, y, w-4, 4, c.fit(s, w-4), "L")
		y += 4
	}
}

func (c *canvas) table() {
	c.setFont("", 9)
	wrapped := make([][]string, len(c.doc.Lines))
	heights := make([]float64, len(c.doc.Lines))
	for i, l := range c.doc.Lines {
		wrapped[i] = c.split(l.Description, colWidths[0]-2*cellPadX)
		heights[i] = rowHeight(len(wrapped[i]))
	}

	for p, rows := range Paginate(heights, firstPageRows, nextPageRows) {
		if p > 0 {
			c.newPage()
		}
		c.tableHeader()
		for _, i := range rows {
			c.row(i, c.doc.Lines[i], wrapped[i], heights[i])
		}
	}
	c.y += 4
}

func (c *canvas) tableHeader() {
	c.pdf.SetFillColor(c.color[0], c.color[1], c.color[2])
	c.pdf.Rect(margin, c.y, contentW, headRowH, "F")
	c.pdf.SetTextColor(255, 255, 255)
	c.setFont("B", 9)
	x := margin
	for i, title := range colTitles {
		c.cell(x+cellPadX, c.y+2, colWidths[i]-2*cellPadX, 4, title, colAligns[i])
		x += colWidths[i]
	}
	c.pdf.SetTextColor(0, 0, 0)
	c.y += headRowH
}

func (c *canvas) row(i int, l Line, desc []string, h float64) {
	if i%2 == 1 {
		c.pdf.SetFillColor(245, 247, 250)
		c.pdf.Rect(margin, c.y, contentW, h, "F")
	}
	c.setFont("", 9)
	top := c.y + rowPadY
	for n, s := range desc {
		c.cell(margin+cellPadX, top+float64(n)*lineH, colWidths[0]-2*cellPadX, lineH, s, "L")
	}
	values := [...]string{
		money.FormatQuantity(l.Quantity),
		money.Format(l.UnitPrice),
		money.FormatRate(l.TaxRate),
		money.Format(l.TotalTTC),
	}
	x := margin + colWidths[0]
	for k, v := range values {
		col := k + 1
		c.cell(x+cellPadX, top, colWidths[col]-2*cellPadX, lineH, v, colAligns[col])
		x += colWidths[col]
	}

	c.pdf.SetDrawColor(220, 220, 220)
	c.pdf.SetLineWidth(0.2)
	x = margin
	for _, w := range colWidths[:len(colWidths)-1] {
		x += w
		c.pdf.Line(x, c.y, x, c.y+h)
	}
	c.pdf.Line(margin, c.y+h, margin+contentW, c.y+h)
	c.y += h
}

type totalLine struct {
	label  string
	amount decimal.Decimal
	strong bool
}

func (c *canvas) totalLines() []totalLine {
	t := c.doc.Totals
	var out []totalLine
	if t.HasDiscount() {
		out = append(out,
			totalLine{label: "Sous-total HT", amount: t.Subtotal},
			totalLine{label: "Remise", amount: t.Discount.Neg()},
			totalLine{label: "Total HT net", amount: t.HT},
		)
	} else {
		out = append(out, totalLine{label: "Total HT", amount: t.HT})
	}
	if t.MultipleRates() {
		for _, r := range t.ByRate {
			out = append(out, totalLine{
				label:  fmt.Sprintf("TVA %s sur %s", money.FormatRate(r.Rate), money.Format(r.Base)),
				amount: r.TVA,
			})
		}
	}
	out = append(out,
		totalLine{label: "Total TVA", amount: t.TVA},
		totalLine{label: "Total TTC", amount: t.TTC, strong: true},
	)
	return out
}

// totals draws the summary block, the payment QR code and the amount in words.
func (c *canvas) totals() {
	lines := c.totalLines()
	c.setFont("", 9)
	words := c.split(c.doc.amountSentence(), contentW)
	payload := qrPayload(c.brand.QRTemplate, map[string]string{
		"number": c.doc.Number,
		"total":  c.doc.Totals.TTC.StringFixed(2),
		"iban":   c.brand.IBAN,
		"bic":    c.brand.BIC,
		"name":   c.brand.Name,
	})

	blockH := float64(len(lines)) * 6
	if payload != "" && blockH < qrSize+5 {
		blockH = qrSize + 5
	}
	c.ensure(blockH + float64(len(words))*lineH + 4)

	top := c.y
	if payload != "" && c.registerQR(payload) {
		c.pdf.ImageOptions("qr", margin, top, qrSize, qrSize, false, gofpdf.ImageOptions{}, 0, "")
		c.setFont("", 7)
		c.cell(margin, top+qrSize, qrSize, 4, "Paiement", "C")
	}

	w := 90.0
	x := pageW - margin - w
	y := top
	for _, l := range lines {
		if l.strong {
			c.pdf.SetFillColor(c.color[0], c.color[1], c.color[2])
			c.pdf.Rect(x, y, w, 7, "F")
			c.pdf.SetTextColor(255, 255, 255)
			c.setFont("B", 10)
		} else {
			c.pdf.SetTextColor(0, 0, 0)
			c.setFont("", 9)
		}
		c.cell(x+2, y+1.5, w-36, 4, l.label, "L")
		c.cell(x+w-34, y+1.5, 32, 4, money.Format(l.amount), "R")
		y += 6
	}
	c.pdf.SetTextColor(0, 0, 0)

	c.y = top + blockH + 2
	c.setFont("", 9)
	for _, s := range words {
		c.cell(margin, c.y, contentW, lineH, s, "L")
		c.y += lineH
	}
	c.y += 2
}

// textBox draws a titled, wrapped paragraph. Empty bodies draw nothing.
func (c *canvas) textBox(title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	c.setFont("", 9)
	var lines []string
	for _, para := range strings.Split(body, "\n") {
		lines = append(lines, c.split(para, contentW-4)...)
	}
	h := 7 + float64(len(lines))*lineH + 2
	if h > nextPageRows {
		// Clip instead of looping over pages for an absurdly long text.
		maxLines := int(math.Floor((nextPageRows - 9) / lineH))
		lines = lines[:maxLines]
		h = 7 + float64(len(lines))*lineH + 2
	}
	c.ensure(h)

	c.pdf.SetDrawColor(210, 210, 210)
	c.pdf.Rect(margin, c.y, contentW, h, "D")
	c.setFont("B", 9)
	c.pdf.SetTextColor(c.color[0], c.color[1], c.color[2])
	c.cell(margin+2, c.y+1.5, contentW-4, 4, title, "L")
	c.pdf.SetTextColor(0, 0, 0)
	c.setFont("", 9)
	y := c.y + 7
	for _, s := range lines {
		c.cell(margin+2, y, contentW-4, lineH, s, "L")
		y += lineH
	}
	c.y += h + 4
}

// signature draws the client's approval box.
func (c *canvas) signature() {
	const w, h = 80.0, 32.0
	c.ensure(h)
	x := pageW - margin - w
	c.pdf.SetDrawColor(160, 160, 160)
	c.pdf.Rect(x, c.y, w, h, "D")
	c.setFont("B", 9)
	c.cell(x+2, c.y+2, w-4, 4, "Bon pour accord", "L")
	c.setFont("", 8)
	c.pdf.SetTextColor(120, 120, 120)
	c.cell(x+2, c.y+6, w-4, 4, "Date et signature du client", "L")
	c.pdf.SetTextColor(0, 0, 0)
	c.y += h + 4
}

func (c *canvas) footer() {
	y := pageH - margin - footerH + 4
	c.pdf.SetDrawColor(210, 210, 210)
	c.pdf.SetLineWidth(0.2)
	c.pdf.Line(margin, y, pageW-margin, y)
	c.pdf.SetTextColor(110, 110, 110)
	c.setFont("", 8)

	issuer := c.brand.Name
	if c.brand.TaxID != "" {
		issuer += " - TVA : " + c.brand.TaxID
	}
	c.cell(margin, y+1.5, contentW-30, 4, issuer, "L")
	bank := joinNonEmpty(" - ", prefixed("IBAN : ", c.brand.IBAN), prefixed("BIC : ", c.brand.BIC))
	if bank != "" {
		c.cell(margin, y+5.5, contentW-30, 4, bank, "L")
	}
	c.cell(pageW-margin-30, y+1.5, 30, 4, fmt.Sprintf("Page %d/{nb}", c.pdf.PageNo()), "R")
	c.pdf.SetTextColor(0, 0, 0)
}

func (c *canvas) setFont(style string, size float64) {
	c.pdf.SetFont(c.family, style, size)
}

// cell writes one line of text at an absolute position.
func (c *canvas) cell(x, y, w, h float64, s, align string) {
	c.pdf.SetXY(x, y)
	c.pdf.CellFormat(w, h, c.tr(s), "", 0, align, false, 0, "")
}

// split wraps s to width w with the current font. Lines come back untranslated.
func (c *canvas) split(s string, w float64) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{""}
	}
	if c.utf8 {
		return c.pdf.SplitText(s, w)
	}
	// The core fonts measure cp1252 bytes; wrap on words of the original
	// text so lines can be translated independently.
	var lines []string
	var cur string
	for _, word := range strings.Fields(s) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if cur != "" && c.pdf.GetStringWidth(c.tr(next)) > w {
			lines = append(lines, cur)
			next = word
		}
		cur = next
	}
	return append(lines, cur)
}

// fit truncates s with an ellipsis so that it fits in w.
func (c *canvas) fit(s string, w float64) string {
	if c.pdf.GetStringWidth(c.tr(s)) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 1 && c.pdf.GetStringWidth(c.tr(string(r)+"...")) > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
