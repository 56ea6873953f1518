package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmdatafocus/invoice_backend/utils"
)

// InvoiceDraft is an invoice being edited. Every mutation goes through a
// method that re-runs the totals engine, so Totals always match the items.
type InvoiceDraft struct {
	NewInvoice
	Totals
}

// MarshalJSON writes the input fields followed by the derived totals with
// two decimals.
func (d InvoiceDraft) MarshalJSON() ([]byte, error) {
	type input NewInvoice
	return json.Marshal(struct {
		input
		totalsJSON
	}{input(d.NewInvoice), totalsJSON{
		Subtotal:  moneyString(d.Subtotal),
		TaxAmount: moneyString(d.TaxAmount),
		Total:     moneyString(d.Total),
	}})
}

// NewDraft starts an empty invoice dated now with a time-derived number.
func NewDraft(now time.Time) *InvoiceDraft {
	d := &InvoiceDraft{NewInvoice: NewInvoice{
		DocumentType:  DocumentTypeInvoice,
		InvoiceNumber: DraftInvoiceNumber(now),
		IssueDate:     now.Format(time.DateOnly),
		Items:         []NewInvoiceItem{},
	}}
	d.Recompute()
	return d
}

// DraftInvoiceNumber is "INV-" plus the last six digits of the unix millis.
func DraftInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%06d", now.UnixMilli()%1000000)
}

func DraftFromInvoice(inv *Invoice) *InvoiceDraft {
	d := &InvoiceDraft{NewInvoice: *inv.Input()}
	d.Recompute()
	return d
}

// DraftFromInput wraps form input as a draft with fresh totals.
func DraftFromInput(input NewInvoice) *InvoiceDraft {
	d := &InvoiceDraft{NewInvoice: input}
	d.Normalize()
	if d.Items == nil {
		d.Items = []NewInvoiceItem{}
	}
	d.Recompute()
	return d
}

// DraftFromTemplate re-applies a template snapshot as a fresh draft. The
// snapshot is only interpreted here; fields it does not carry stay empty.
func DraftFromTemplate(tpl *InvoiceTemplate) (*InvoiceDraft, error) {
	d := &InvoiceDraft{}
	if err := json.Unmarshal(tpl.TemplateData, &d.NewInvoice); err != nil {
		return nil, utils.NewValidationError("template_data", "does not describe an invoice")
	}
	d.Normalize()
	if d.Items == nil {
		d.Items = []NewInvoiceItem{}
	}
	d.Recompute()
	return d, nil
}

// Recompute refreshes the derived totals and returns them.
func (d *InvoiceDraft) Recompute() Totals {
	d.Totals = d.ComputeTotals()
	return d.Totals
}

func (d *InvoiceDraft) SetItems(items []NewInvoiceItem) {
	d.Items = append([]NewInvoiceItem(nil), items...)
	for i := range d.Items {
		d.Items[i].Quantity = normalizeQuantity(d.Items[i].Quantity)
	}
	d.Recompute()
}

func (d *InvoiceDraft) AddItem(item NewInvoiceItem) {
	item.Quantity = normalizeQuantity(item.Quantity)
	d.Items = append(d.Items, item)
	d.Recompute()
}

func (d *InvoiceDraft) UpdateItem(index int, item NewInvoiceItem) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	item.Quantity = normalizeQuantity(item.Quantity)
	d.Items[index] = item
	d.Recompute()
	return nil
}

func (d *InvoiceDraft) RemoveItem(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	d.Recompute()
	return nil
}

// MoveItem changes print order; totals do not depend on it.
func (d *InvoiceDraft) MoveItem(from, to int) error {
	if err := d.checkIndex(from); err != nil {
		return err
	}
	if err := d.checkIndex(to); err != nil {
		return err
	}
	item := d.Items[from]
	d.Items = append(d.Items[:from], d.Items[from+1:]...)
	d.Items = append(d.Items[:to], append([]NewInvoiceItem{item}, d.Items[to:]...)...)
	d.Recompute()
	return nil
}

func (d *InvoiceDraft) SetTaxRate(raw string) {
	d.TaxRate = utils.InputDecimalFromString(raw)
	d.Recompute()
}

func (d *InvoiceDraft) SetDiscountAmount(raw string) {
	d.DiscountAmount = utils.InputDecimalFromString(raw)
	d.Recompute()
}

func (d *InvoiceDraft) SetDocumentType(t DocumentType) {
	d.DocumentType = t.OrDefault()
}

func (d *InvoiceDraft) checkIndex(index int) error {
	if index < 0 || index >= len(d.Items) {
		return utils.NewValidationError("items", fmt.Sprintf("no item at position %d", index))
	}
	return nil
}

// ToInvoice freezes the draft into an unsaved invoice for rendering.
func (d *InvoiceDraft) ToInvoice() *Invoice {
	return d.NewInvoice.ToInvoice()
}
