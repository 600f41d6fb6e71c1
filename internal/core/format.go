package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatUnits renders an integer with thousands separators, e.g. 12,345.
func FormatUnits(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatMoney renders d with thousands separators and exactly 2 decimals
// without going through float64, e.g. 1,234.50.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}
	fixed := d.StringFixed(2)
	frac := "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		frac = fixed[i+1:]
	}
	return printer.Sprintf("%d", d.Round(2).Truncate(0).IntPart()) + "." + frac
}
