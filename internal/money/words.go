package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var frUnits = [...]string{
	"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf",
	"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf",
}

var frTens = [...]string{
	"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante", "soixante", "quatre-vingt", "quatre-vingt",
}

// InWords spells an amount in French: "deux cent quarante euros",
// "moins douze euros et cinquante centimes".
func InWords(d decimal.Decimal) string {
	d = Round(d)
	if d.IsNegative() {
		return "moins " + InWords(d.Neg())
	}
	euros := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(euros)).Mul(hundred).Round(0).IntPart()

	var b strings.Builder
	b.WriteString(SpellInt(euros))
	switch {
	case euros >= 1_000_000 && euros%1_000_000 == 0:
		b.WriteString(" d'euros")
	case euros > 1:
		b.WriteString(" euros")
	default:
		b.WriteString(" euro")
	}
	if cents > 0 {
		b.WriteString(" et ")
		b.WriteString(SpellInt(cents))
		if cents > 1 {
			b.WriteString(" centimes")
		} else {
			b.WriteString(" centime")
		}
	}
	return b.String()
}

// SpellInt spells an integer in French, traditional hyphenation.
func SpellInt(n int64) string {
	if n < 0 {
		return "moins " + SpellInt(-n)
	}
	if n == 0 {
		return frUnits[0]
	}
	var parts []string
	scales := []struct {
		value int64
		name  string
	}{
		{1_000_000_000, "milliard"},
		{1_000_000, "million"},
	}
	for _, s := range scales {
		if n >= s.value {
			q := n / s.value
			n %= s.value
			w := SpellInt(q) + " " + s.name
			if q > 1 {
				w += "s"
			}
			parts = append(parts, w)
		}
	}
	if n >= 1000 {
		k := n / 1000
		n %= 1000
		if k == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, below1000(int(k), false)+" mille")
		}
	}
	if n > 0 {
		parts = append(parts, below1000(int(n), true))
	}
	return strings.Join(parts, " ")
}

// below1000 spells 1..999. final is false when "mille" follows, which
// removes the plural s of "cents" and "quatre-vingts".
func below1000(n int, final bool) string {
	h, r := n/100, n%100
	var w string
	switch {
	case h == 1:
		w = "cent"
	case h > 1:
		w = frUnits[h] + " cent"
		if r == 0 && final {
			w += "s"
		}
	}
	if r == 0 {
		return w
	}
	if w != "" {
		w += " "
	}
	return w + below100(r, final)
}

func below100(n int, final bool) string {
	if n < 20 {
		return frUnits[n]
	}
	t, u := n/10, n%10
	switch t {
	case 7:
		if u == 1 {
			return "soixante et onze"
		}
		return frTens[t] + "-" + frUnits[10+u]
	case 9:
		return frTens[t] + "-" + frUnits[10+u]
	case 8:
		if u == 0 {
			if final {
				return "quatre-vingts"
			}
			return "quatre-vingt"
		}
		return frTens[t] + "-" + frUnits[u]
	}
	switch u {
	case 0:
		return frTens[t]
	case 1:
		return frTens[t] + " et un"
	}
	return frTens[t] + "-" + frUnits[u]
}
