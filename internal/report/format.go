package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is shown for undefined ratios.
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.English)

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Money formats v as "$ 1,234.56".
func Money(v float64) string {
	return "$ " + printer.Sprintf("%.2f", round2(v).InexactFloat64())
}

// Percent formats a fraction as "66.67%".
func Percent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// Ratio formats r with two decimals, or N/A when nil.
func Ratio(r *float64) string {
	if r == nil {
		return NotAvailable
	}
	return decimal.NewFromFloat(*r).StringFixed(2)
}

// Price rounds a price level to cents for display.
func Price(v float64) float64 {
	return round2(v).InexactFloat64()
}
