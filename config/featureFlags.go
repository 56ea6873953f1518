package config

import (
	"os"
	"strings"
)

// StrictNumericInput makes unparseable tax rate, discount and item amount
// input a validation error instead of reading it as zero.
//
// Set via env:
// - STRICT_NUMERIC_INPUT=true
func StrictNumericInput() bool {
	return boolFromEnv("STRICT_NUMERIC_INPUT")
}

// GenerateUPIQR draws a generated UPI payment QR on invoices that carry a
// UPI id but no uploaded QR image.
//
// Set via env:
// - GENERATE_UPI_QR=true
func GenerateUPIQR() bool {
	return boolFromEnv("GENERATE_UPI_QR")
}

// PhoneDefaultRegion is the region used to parse phone numbers without a
// country prefix. Defaults to IN.
func PhoneDefaultRegion() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_DEFAULT_REGION")))
	if v == "" {
		return "IN"
	}
	return v
}

// StoreDriver selects the invoice store: "mysql" (default) or "memory".
func StoreDriver() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if v == "" {
		return "mysql"
	}
	return v
}
