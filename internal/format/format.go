// Package format renders billing quantities the way the invoices print
// them: Brazilian Portuguese grouping and decimal separators.
package format

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/invoice-cli/internal/invoice"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats v as "R$ 1.234,56". Negative amounts get a leading minus.
func Money(v float64) string {
	if v < 0 {
		return "-R$ " + printer.Sprintf("%.2f", -v)
	}
	return "R$ " + printer.Sprintf("%.2f", v)
}

// Tariff formats a per-kWh price with up to six decimals, trailing zeros
// trimmed down to two.
func Tariff(v float64) string {
	s := printer.Sprintf("%.6f", v)
	if i := strings.LastIndex(s, ","); i >= 0 {
		keep := i + 3
		for len(s) > keep && s[len(s)-1] == '0' {
			s = s[:len(s)-1]
		}
	}
	return "R$ " + s
}

// Energy formats a kWh quantity.
func Energy(v float64) string {
	return printer.Sprintf("%.2f", v) + " kWh"
}

// Number formats a plain quantity with two decimals.
func Number(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// Value formats v according to the unit of the named field.
func Value(name invoice.FieldName, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	f := invoice.Default.Lookup(name)
	if f == nil {
		return Number(v)
	}
	switch f.Unit {
	case invoice.UnitCurrency:
		return Money(v)
	case invoice.UnitTariff:
		return Tariff(v) + "/kWh"
	case invoice.UnitKWh:
		return Energy(v)
	case invoice.UnitKg:
		return Number(v) + " kg"
	default:
		return Number(v)
	}
}
