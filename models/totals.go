package models

import (
	"encoding/json"

	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmount is the part of a line item the totals depend on.
type LineAmount struct {
	Quantity int
	Amount   decimal.Decimal
}

type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// MarshalJSON writes every amount with exactly two decimals, e.g. "1120.50".
func (t Totals) MarshalJSON() ([]byte, error) {
	return json.Marshal(totalsJSON{
		Subtotal:  moneyString(t.Subtotal),
		TaxAmount: moneyString(t.TaxAmount),
		Total:     moneyString(t.Total),
	})
}

type totalsJSON struct {
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

func moneyString(d decimal.Decimal) string {
	return utils.Round2(d).StringFixed(2)
}

// RecomputeTotals derives subtotal, tax and total from the full item list.
//
//	subtotal = round2(Σ amount × quantity)
//	tax      = round2(subtotal × taxRate / 100)
//	total    = round2(max(0, subtotal + tax − discount))
//
// Negative rates or discounts count as zero and quantities below one count
// as one and rates above 100 count as 100. Results are rounded to cents.
func RecomputeTotals(items []LineAmount, taxRate, discountAmount decimal.Decimal) Totals {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(LineExtension(item.Amount, item.Quantity))
	}
	subtotal := utils.Round2(sum)
	taxAmount := utils.Round2(subtotal.Mul(clampRate(taxRate)).Div(hundred))
	total := subtotal.Add(taxAmount).Sub(nonNegative(discountAmount))
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     utils.Round2(total),
	}
}

// RecomputeTotalsLoose is RecomputeTotals for raw form input: rates that
// do not parse count as zero.
func RecomputeTotalsLoose(items []LineAmount, taxRateRaw, discountRaw string) Totals {
	return RecomputeTotals(items,
		utils.InputDecimalFromString(taxRateRaw).Decimal(),
		utils.InputDecimalFromString(discountRaw).Decimal(),
	)
}

// LineExtension is the unrounded amount × quantity of a single line.
func LineExtension(amount decimal.Decimal, quantity int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(normalizeQuantity(quantity))))
}

func LineAmountsOf(items []NewInvoiceItem) []LineAmount {
	out := make([]LineAmount, len(items))
	for i, item := range items {
		out[i] = LineAmount{Quantity: item.Quantity, Amount: item.Amount.Decimal()}
	}
	return out
}

func LineAmountsOfDetails(details []InvoiceItem) []LineAmount {
	out := make([]LineAmount, len(details))
	for i, d := range details {
		out[i] = LineAmount{Quantity: d.Quantity, Amount: d.Amount}
	}
	return out
}

func normalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return nonNegative(rate)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
