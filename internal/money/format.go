package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var frPrinter = message.NewPrinter(language.French)

// spaceNormalizer maps the CLDR French separators to characters every PDF
// core font can draw.
var spaceNormalizer = strings.NewReplacer(
	"\u202f", " ",
	"\u00a0", " ",
	"\u2212", "-",
)

// Format renders an amount the French way: "1 234,56 €".
func Format(d decimal.Decimal) string {
	return FormatNumber(d, 2) + " €"
}

// FormatNumber renders a number with the French grouping and decimal comma,
// with exactly scale digits after the comma.
func FormatNumber(d decimal.Decimal, scale int) string {
	v := d.Round(int32(scale)).InexactFloat64()
	s := frPrinter.Sprintf("%v", number.Decimal(v, number.Scale(scale)))
	return spaceNormalizer.Replace(s)
}

// FormatQuantity renders a quantity without useless trailing zeros: "2", "1,5".
func FormatQuantity(q decimal.Decimal) string {
	return strings.Replace(q.String(), ".", ",", 1)
}

// FormatRate renders a tax rate percentage: "20 %", "5,5 %".
func FormatRate(r decimal.Decimal) string {
	return strings.Replace(r.String(), ".", ",", 1) + " %"
}
