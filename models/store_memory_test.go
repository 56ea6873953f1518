package models

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/invoice_backend/utils"
)

func TestMemoryStore_DuplicateNumberIsValidationError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.InsertInvoice(ctx, validInput().ToInvoice()); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertInvoice(ctx, validInput().ToInvoice())
	fields := validationFields(t, err)
	if fields["invoice_number"] != "Invoice number already exists" {
		t.Fatalf("unexpected fields %v", fields)
	}

	all, _ := s.ListInvoices(ctx)
	if len(all) != 1 {
		t.Fatalf("duplicate must not be stored, have %d invoices", len(all))
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	inv := validInput().ToInvoice()
	if err := s.InsertInvoice(ctx, inv); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.ClientName = "changed"
	got.Details[0].Title = "changed"

	again, _ := s.GetInvoice(ctx, inv.ID)
	if again.ClientName != "Globex" || again.Details[0].Title != "Design" {
		t.Fatalf("stored invoice was mutated through a returned copy")
	}
	if again.Details[0].ID == 0 || again.Details[0].InvoiceId != inv.ID {
		t.Fatalf("item ids not assigned: %+v", again.Details[0])
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.GetInvoice(ctx, 42); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteInvoice(ctx, 42); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.SaveInvoice(ctx, &Invoice{ID: 42}); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.GetTemplate(ctx, 1); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStore_TemplatesKeepData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	raw := []byte(`{"company_name":"Acme",  "items":[]}`)

	tpl := &InvoiceTemplate{Name: "Base", TemplateData: raw}
	if err := s.InsertTemplate(ctx, tpl); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := s.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.TemplateData) != string(raw) {
		t.Fatalf("template data changed: %s", got.TemplateData)
	}
	if err := s.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := s.ListTemplates(ctx)
	if len(list) != 0 {
		t.Fatalf("expected no templates, got %d", len(list))
	}
}
