package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

const CurrencyPrefix = "Rs. "

// FormatAmount renders d with two decimals and comma thousands separators.
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	out := b.String() + frac
	if neg && strings.Trim(out, "0.,") != "" {
		out = "-" + out
	}
	return out
}

// FormatMoney prefixes the formatted amount with the currency, keeping the
// sign in front: -Rs. 50.00.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() && !d.Round(2).IsZero() {
		return "-" + CurrencyPrefix + FormatAmount(d.Neg())
	}
	return CurrencyPrefix + FormatAmount(d.Abs())
}

// FormatRate prints a percentage without trailing zeros: 8.5, 10.
func FormatRate(d decimal.Decimal) string {
	return d.String()
}
