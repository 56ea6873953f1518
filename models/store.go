package models

import (
	"context"

	"github.com/mmdatafocus/invoice_backend/utils"
)

// InvoiceStore persists invoices and templates. Lookups of missing ids
// return utils.ErrorRecordNotFound; inserting or saving an invoice whose
// number is already used returns a *utils.ValidationError.
type InvoiceStore interface {
	ListInvoices(ctx context.Context) ([]*Invoice, error)
	GetInvoice(ctx context.Context, id int) (*Invoice, error)
	InvoiceNumberTaken(ctx context.Context, number string, exceptId int) (bool, error)
	InsertInvoice(ctx context.Context, inv *Invoice) error
	SaveInvoice(ctx context.Context, inv *Invoice) error
	DeleteInvoice(ctx context.Context, id int) error

	ListTemplates(ctx context.Context) ([]*InvoiceTemplate, error)
	GetTemplate(ctx context.Context, id int) (*InvoiceTemplate, error)
	InsertTemplate(ctx context.Context, tpl *InvoiceTemplate) error
	DeleteTemplate(ctx context.Context, id int) error
}

func duplicateInvoiceNumberError() error {
	return utils.NewValidationError("invoice_number", "Invoice number already exists")
}
