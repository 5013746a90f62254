package reporter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is prefixed to every monetary amount in text reports
const DefaultCurrencySymbol = "$"

// FormatCurrency renders amount with symbol, thousands separators and two
// decimals. Rounding is half away from zero; negatives carry a leading minus
// sign ahead of the symbol.
func FormatCurrency(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(2)
	fixed := rounded.Abs().StringFixed(2)

	intPart, fracPart := fixed, ""
	if dot := strings.IndexByte(fixed, '.'); dot >= 0 {
		intPart, fracPart = fixed[:dot], fixed[dot:]
	}

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	b.WriteString(groupThousands(intPart))
	b.WriteString(fracPart)
	return b.String()
}

// FormatAmount renders amount with two decimals and no symbol or grouping
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
