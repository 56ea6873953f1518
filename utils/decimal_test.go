package utils

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalInput_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"Rs. 1,234.50", "1234.5"},
		{"INR -20,000", "-20000"},
		{"₹ 99.99", "99.99"},
		{"  8.5  ", "8.5"},
	}
	for _, tc := range cases {
		d, err := ParseDecimalInput(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimalInput(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimalInput(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseDecimalInput_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12abc", "1.2.3", "-", "Rs."} {
		if _, err := ParseDecimalInput(in); err == nil {
			t.Fatalf("ParseDecimalInput(%q) expected error", in)
		}
	}
}

func TestInputDecimal_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		in      string
		value   string
		invalid bool
	}{
		{`10`, "10", false},
		{`"8.5"`, "8.5", false},
		{`"1,000"`, "1000", false},
		{`null`, "0", false},
		{`""`, "0", false},
		{`"ten"`, "0", true},
		{`true`, "0", true},
	}
	for _, tc := range cases {
		var v struct {
			Rate InputDecimal `json:"rate"`
		}
		if err := json.Unmarshal([]byte(`{"rate":`+tc.in+`}`), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if v.Rate.Invalid != tc.invalid {
			t.Fatalf("%s: expected invalid=%v, got %v", tc.in, tc.invalid, v.Rate.Invalid)
		}
		if got := v.Rate.Decimal().String(); got != tc.value {
			t.Fatalf("%s: expected %s, got %s", tc.in, tc.value, got)
		}
	}
}
