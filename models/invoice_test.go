package models

import (
	"testing"

	"github.com/mmdatafocus/invoice_backend/utils"
)

func validInput() *NewInvoice {
	return &NewInvoice{
		InvoiceNumber: "INV-100",
		IssueDate:     "2026-01-15",
		DueDate:       "2026-02-14",
		CompanyName:   "Acme Studio",
		CompanyEmail:  "billing@acme.example.com",
		ClientName:    "Globex",
		Items: []NewInvoiceItem{
			{Title: "Design", Quantity: 2, Amount: utils.NewInputDecimal(dec("500.00"))},
			{Title: "Hosting", Quantity: 1, Amount: utils.NewInputDecimal(dec("120.50"))},
		},
		TaxRate:        utils.NewInputDecimal(dec("10")),
		DiscountAmount: utils.NewInputDecimal(dec("50")),
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	verr, ok := utils.IsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestNewInvoice_ValidInput(t *testing.T) {
	input := validInput()
	input.Normalize()
	if err := input.Validate(false); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	if input.DocumentType != DocumentTypeInvoice {
		t.Fatalf("expected default document type invoice, got %q", input.DocumentType)
	}
}

func TestNewInvoice_ValidationFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewInvoice)
		field  string
	}{
		{"missing company name", func(in *NewInvoice) { in.CompanyName = "  " }, "company_name"},
		{"missing company email", func(in *NewInvoice) { in.CompanyEmail = "" }, "company_email"},
		{"malformed company email", func(in *NewInvoice) { in.CompanyEmail = "not-an-email" }, "company_email"},
		{"malformed client email", func(in *NewInvoice) { in.ClientEmail = "globex@" }, "client_email"},
		{"missing client name", func(in *NewInvoice) { in.ClientName = "" }, "client_name"},
		{"missing invoice number", func(in *NewInvoice) { in.InvoiceNumber = "" }, "invoice_number"},
		{"bad issue date", func(in *NewInvoice) { in.IssueDate = "15/01/2026" }, "issue_date"},
		{"due before issue", func(in *NewInvoice) { in.DueDate = "2026-01-01" }, "due_date"},
		{"empty item list", func(in *NewInvoice) { in.Items = []NewInvoiceItem{} }, "items"},
		{"nil item list", func(in *NewInvoice) { in.Items = nil }, "items"},
		{"item without title", func(in *NewInvoice) { in.Items[1].Title = "" }, "items[1].title"},
		{"item quantity zero", func(in *NewInvoice) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative item amount", func(in *NewInvoice) {
			in.Items[0].Amount = utils.NewInputDecimal(dec("-1"))
		}, "items[0].amount"},
		{"tax rate above 100", func(in *NewInvoice) { in.TaxRate = utils.NewInputDecimal(dec("100.5")) }, "tax_rate"},
		{"negative discount", func(in *NewInvoice) { in.DiscountAmount = utils.NewInputDecimal(dec("-5")) }, "discount_amount"},
		{"unknown document type", func(in *NewInvoice) { in.DocumentType = "receipt" }, "document_type"},
		{"invalid phone", func(in *NewInvoice) { in.CompanyPhone = "12" }, "company_phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(input)
			input.Normalize()
			fields := validationFields(t, input.Validate(false))
			if _, ok := fields[tc.field]; !ok {
				t.Fatalf("expected error on %s, got %v", tc.field, fields)
			}
		})
	}
}

func TestNewInvoice_InvalidNumbersDependOnStrictMode(t *testing.T) {
	input := validInput()
	input.TaxRate = utils.InputDecimalFromString("ten")
	input.Normalize()

	if err := input.Validate(false); err != nil {
		t.Fatalf("lenient mode should accept unparseable tax rate, got %v", err)
	}
	totals := input.ComputeTotals()
	assertTotals(t, totals, "1120.50", "0", "1070.50")

	fields := validationFields(t, input.Validate(true))
	if fields["tax_rate"] != "must be a number" {
		t.Fatalf("strict mode expected tax_rate error, got %v", fields)
	}
}

func TestNewInvoice_ToInvoiceComputesTotals(t *testing.T) {
	inv := validInput().ToInvoice()
	assertTotals(t, Totals{Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, Total: inv.Total}, "1120.50", "112.05", "1182.55")
	if len(inv.Details) != 2 || inv.Details[1].Position != 1 {
		t.Fatalf("expected two ordered details, got %+v", inv.Details)
	}
	if !inv.TaxRate.Equal(dec("10")) || !inv.DiscountAmount.Equal(dec("50")) {
		t.Fatalf("rates not copied: %s %s", inv.TaxRate, inv.DiscountAmount)
	}
}

func TestInvoice_InputRoundTrip(t *testing.T) {
	inv := validInput().ToInvoice()
	back := inv.Input().ToInvoice()
	if back.InvoiceNumber != inv.InvoiceNumber || !back.Total.Equal(inv.Total) || len(back.Details) != len(inv.Details) {
		t.Fatalf("round trip changed invoice: %+v vs %+v", back, inv)
	}
}

func TestInvoice_RenderView(t *testing.T) {
	input := validInput()
	input.DocumentType = DocumentTypeEstimate
	input.UpiId = "acme@upi"
	view := input.ToInvoice().RenderView()

	if !view.Estimate {
		t.Fatalf("estimate flag not set")
	}
	if view.Number != "INV-100" || view.Company.Name != "Acme Studio" || view.Client.Name != "Globex" {
		t.Fatalf("unexpected header fields: %+v", view)
	}
	if len(view.Items) != 2 || view.Items[0].Quantity != 2 || !view.Items[0].Amount.Equal(dec("500")) {
		t.Fatalf("unexpected items: %+v", view.Items)
	}
	if !view.Total.Equal(dec("1182.55")) || view.Payment.UPIId != "acme@upi" {
		t.Fatalf("unexpected totals/payment: %s %+v", view.Total, view.Payment)
	}
}

func TestInvoice_RenderViewRecomputesStaleTotals(t *testing.T) {
	inv := validInput().ToInvoice()
	inv.Subtotal = dec("1")
	inv.TaxAmount = dec("2")
	inv.Total = dec("3")

	view := inv.RenderView()
	if !view.Subtotal.Equal(dec("1120.50")) || !view.TaxAmount.Equal(dec("112.05")) || !view.Total.Equal(dec("1182.55")) {
		t.Fatalf("expected totals from items, got %s / %s / %s", view.Subtotal, view.TaxAmount, view.Total)
	}
}

func TestNewInvoice_MergeKeepsOmittedFields(t *testing.T) {
	stored := validInput().ToInvoice()

	tests := []struct {
		name      string
		patch     string
		wantErr   bool
		wantNotes string
		wantItems int
		wantTotal string
	}{
		{name: "notes only", patch: `{"notes":"Paid by transfer"}`, wantNotes: "Paid by transfer", wantItems: 2, wantTotal: "1182.55"},
		{name: "items replace", patch: `{"items":[{"title":"Audit","quantity":1,"amount":"100"}]}`, wantItems: 1, wantTotal: "60"},
		{name: "null items keep", patch: `{"items":null}`, wantItems: 2, wantTotal: "1182.55"},
		{name: "malformed", patch: `{"notes":`, wantErr: true, wantItems: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := stored.Input()
			err := input.Merge([]byte(tt.patch))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Merge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(input.Items) != tt.wantItems {
				t.Fatalf("expected %d items, got %d", tt.wantItems, len(input.Items))
			}
			if tt.wantErr {
				return
			}
			if input.Notes != tt.wantNotes || input.ClientName != "Globex" || input.InvoiceNumber != "INV-100" {
				t.Fatalf("merge changed omitted fields: %+v", input)
			}
			if err := input.Validate(true); err != nil {
				t.Fatalf("merged input should validate: %v", err)
			}
			if got := input.ToInvoice().Total; !got.Equal(dec(tt.wantTotal)) {
				t.Fatalf("expected total %s, got %s", tt.wantTotal, got)
			}
		})
	}
}
