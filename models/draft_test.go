package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mmdatafocus/invoice_backend/utils"
)

func item(title string, qty int, amount string) NewInvoiceItem {
	return NewInvoiceItem{Title: title, Quantity: qty, Amount: utils.NewInputDecimal(dec(amount))}
}

func TestNewDraft(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	d := NewDraft(now)

	if d.IssueDate != "2026-03-09" {
		t.Fatalf("expected issue date 2026-03-09, got %s", d.IssueDate)
	}
	if d.InvoiceNumber != DraftInvoiceNumber(now) || len(d.InvoiceNumber) != len("INV-000000") {
		t.Fatalf("unexpected draft number %q", d.InvoiceNumber)
	}
	assertTotals(t, d.Totals, "0", "0", "0")
}

func TestInvoiceDraft_MutationsRecompute(t *testing.T) {
	d := NewDraft(time.Now())

	d.AddItem(item("Design", 2, "500.00"))
	assertTotals(t, d.Totals, "1000", "0", "1000")

	d.AddItem(item("Hosting", 0, "120.50"))
	if d.Items[1].Quantity != 1 {
		t.Fatalf("quantity should default to 1, got %d", d.Items[1].Quantity)
	}
	assertTotals(t, d.Totals, "1120.50", "0", "1120.50")

	d.SetTaxRate("10")
	d.SetDiscountAmount("50")
	assertTotals(t, d.Totals, "1120.50", "112.05", "1182.55")

	if err := d.UpdateItem(1, item("Hosting", 2, "120.50")); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	assertTotals(t, d.Totals, "1241", "124.10", "1315.10")

	if err := d.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	assertTotals(t, d.Totals, "241", "24.10", "215.10")

	d.SetDiscountAmount("1,000,000")
	assertTotals(t, d.Totals, "241", "24.10", "0")

	d.SetTaxRate("abc")
	d.SetDiscountAmount("")
	assertTotals(t, d.Totals, "241", "0", "241")
}

func TestInvoiceDraft_IndexErrors(t *testing.T) {
	d := NewDraft(time.Now())
	d.AddItem(item("Only", 1, "1"))

	if _, ok := utils.IsValidationError(d.RemoveItem(3)); !ok {
		t.Fatalf("expected ValidationError for out of range remove")
	}
	if _, ok := utils.IsValidationError(d.UpdateItem(-1, item("x", 1, "1"))); !ok {
		t.Fatalf("expected ValidationError for negative index")
	}
	if len(d.Items) != 1 {
		t.Fatalf("failed mutations must not change items")
	}
}

func TestInvoiceDraft_MoveItemKeepsTotals(t *testing.T) {
	d := NewDraft(time.Now())
	d.SetItems([]NewInvoiceItem{item("A", 1, "1"), item("B", 1, "2"), item("C", 1, "3")})
	before := d.Totals

	if err := d.MoveItem(0, 2); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	got := []string{d.Items[0].Title, d.Items[1].Title, d.Items[2].Title}
	if got[0] != "B" || got[1] != "C" || got[2] != "A" {
		t.Fatalf("unexpected order %v", got)
	}
	if !d.Total.Equal(before.Total) {
		t.Fatalf("moving items changed the total")
	}
}

func TestDraftFromTemplate(t *testing.T) {
	src := validInput()
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	d, err := DraftFromTemplate(&InvoiceTemplate{Name: "Monthly", TemplateData: data})
	if err != nil {
		t.Fatalf("DraftFromTemplate: %v", err)
	}
	assertTotals(t, d.Totals, "1120.50", "112.05", "1182.55")
	if d.CompanyName != "Acme Studio" || len(d.Items) != 2 {
		t.Fatalf("template fields not applied: %+v", d.NewInvoice)
	}

	partial, err := DraftFromTemplate(&InvoiceTemplate{TemplateData: json.RawMessage(`{"company_name":"Acme"}`)})
	if err != nil {
		t.Fatalf("partial template: %v", err)
	}
	if partial.Items == nil || partial.DocumentType != DocumentTypeInvoice {
		t.Fatalf("partial template should yield an empty invoice draft, got %+v", partial.NewInvoice)
	}

	_, err = DraftFromTemplate(&InvoiceTemplate{TemplateData: json.RawMessage(`[1,2,3]`)})
	if _, ok := utils.IsValidationError(err); !ok {
		t.Fatalf("expected ValidationError for non-object template, got %v", err)
	}
}
