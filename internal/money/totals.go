// Package money holds the pricing arithmetic shared by quotes and invoices:
// line and document totals, French currency formatting and amounts in words.
//
// Every amount is a decimal.Decimal. Rounding is half-up (away from zero) to
// two decimals, applied once on the summed document totals.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is anything priced on a quote or an invoice.
// A missing quantity, price or rate is reported as zero.
type Line interface {
	LineQuantity() decimal.Decimal
	LineUnitPrice() decimal.Decimal
	// LineTaxRate is a percentage: 20 means 20 %.
	LineTaxRate() decimal.Decimal
}

// LineAmounts are the derived totals of a single line.
type LineAmounts struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

// RateTotal aggregates the taxable base and the VAT of one tax rate.
type RateTotal struct {
	Rate decimal.Decimal
	Base decimal.Decimal
	TVA  decimal.Decimal
}

// Totals are the document level amounts.
type Totals struct {
	// Subtotal is the HT amount before any document discount.
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	HT       decimal.Decimal
	TVA      decimal.Decimal
	TTC      decimal.Decimal
	// ByRate is sorted by rate, highest first.
	ByRate []RateTotal
}

// Round rounds an amount to cents, half-up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundQuantity rounds a quantity to the nearest integer, half-up.
func RoundQuantity(q decimal.Decimal) int {
	return int(q.Round(0).IntPart())
}

// LineTotals computes the totals of a single line:
// HT = round(qty*price), TVA = round(HT*rate/100), TTC = HT+TVA.
func LineTotals(l Line) LineAmounts {
	if l == nil {
		return LineAmounts{}
	}
	ht := Round(l.LineQuantity().Mul(l.LineUnitPrice()))
	tva := Round(ht.Mul(l.LineTaxRate()).Div(hundred))
	return LineAmounts{HT: ht, TVA: tva, TTC: ht.Add(tva)}
}

// ComputeTotals sums the lines and rounds the document totals.
// It is pure: calling it twice on the same lines yields the same result.
func ComputeTotals[L Line](lines []L) Totals {
	var ht, tva decimal.Decimal
	buckets := make(map[string]*RateTotal)
	for _, l := range lines {
		if any(l) == nil {
			continue
		}
		lineHT := l.LineQuantity().Mul(l.LineUnitPrice())
		rate := l.LineTaxRate()
		lineTVA := lineHT.Mul(rate).Div(hundred)
		ht = ht.Add(lineHT)
		tva = tva.Add(lineTVA)

		key := rate.String()
		b, ok := buckets[key]
		if !ok {
			b = &RateTotal{Rate: rate}
			buckets[key] = b
		}
		b.Base = b.Base.Add(lineHT)
		b.TVA = b.TVA.Add(lineTVA)
	}

	t := Totals{Subtotal: Round(ht), HT: Round(ht), TVA: Round(tva)}
	t.TTC = t.HT.Add(t.TVA)
	t.ByRate = make([]RateTotal, 0, len(buckets))
	for _, b := range buckets {
		t.ByRate = append(t.ByRate, RateTotal{Rate: b.Rate, Base: Round(b.Base), TVA: Round(b.TVA)})
	}
	sort.Slice(t.ByRate, func(i, j int) bool {
		return t.ByRate[i].Rate.GreaterThan(t.ByRate[j].Rate)
	})
	return t
}

// WithDiscount applies an absolute HT discount, capped at the subtotal.
// VAT is recomputed per rate on the discounted base so TTC == HT + TVA holds.
func (t Totals) WithDiscount(d decimal.Decimal) Totals {
	if !d.IsPositive() || !t.Subtotal.IsPositive() {
		return t
	}
	if d.GreaterThan(t.Subtotal) {
		d = t.Subtotal
	}
	ratio := t.Subtotal.Sub(d).Div(t.Subtotal)
	out := Totals{Subtotal: t.Subtotal, Discount: d, HT: t.Subtotal.Sub(d)}
	out.ByRate = make([]RateTotal, 0, len(t.ByRate))
	for _, r := range t.ByRate {
		base := Round(r.Base.Mul(ratio))
		vat := Round(base.Mul(r.Rate).Div(hundred))
		out.ByRate = append(out.ByRate, RateTotal{Rate: r.Rate, Base: base, TVA: vat})
		out.TVA = out.TVA.Add(vat)
	}
	out.TTC = out.HT.Add(out.TVA)
	return out
}

// HasDiscount reports whether a discount line must be shown.
func (t Totals) HasDiscount() bool {
	return t.Discount.IsPositive()
}

// MultipleRates reports whether more than one tax rate is involved.
func (t Totals) MultipleRates() bool {
	return len(t.ByRate) > 1
}
