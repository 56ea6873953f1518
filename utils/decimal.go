package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currency tokens accepted in user-formatted amounts
var currencyTokens = []string{"INR", "inr", "Rs.", "rs.", "Rs", "rs", "₹"}

// ParseDecimalInput accepts plain and user-formatted numbers such as
// "20,000", "Rs. 1,234.50" or "₹ -20". Anything else is an error.
func ParseDecimalInput(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, token := range currencyTokens {
		s = strings.ReplaceAll(s, token, "")
	}
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("invalid value %q", value)
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, fmt.Errorf("invalid value %q", value)
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value %q", value)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// InputDecimal is a user-entered number. It accepts JSON numbers and
// formatted strings, and remembers input that did not parse instead of
// failing the whole request body.
type InputDecimal struct {
	Value   decimal.Decimal
	Raw     string
	Invalid bool
}

func NewInputDecimal(d decimal.Decimal) InputDecimal {
	return InputDecimal{Value: d}
}

func InputDecimalFromString(raw string) InputDecimal {
	in := InputDecimal{Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return in
	}
	d, err := ParseDecimalInput(raw)
	if err != nil {
		in.Invalid = true
		return in
	}
	in.Value = d
	return in
}

// Decimal is the parsed value, zero when the input was absent or invalid.
func (in InputDecimal) Decimal() decimal.Decimal {
	if in.Invalid {
		return decimal.Zero
	}
	return in.Value
}

func (in *InputDecimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*in = InputDecimal{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*in = InputDecimal{Raw: string(b), Invalid: true}
			return nil
		}
		*in = InputDecimalFromString(s)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		*in = InputDecimal{Raw: string(b), Invalid: true}
		return nil
	}
	*in = InputDecimal{Value: d, Raw: string(b)}
	return nil
}

func (in InputDecimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(in.Decimal().String())
}
