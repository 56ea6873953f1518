package models

import (
	"github.com/mmdatafocus/invoice_backend/render"
)

// RenderView maps a stored invoice onto the renderer's input. Totals are
// recomputed from the items so the document always adds up.
func (inv *Invoice) RenderView() *render.Invoice {
	totals := inv.ComputeTotals()
	view := &render.Invoice{
		Estimate:  inv.DocumentType == DocumentTypeEstimate,
		Number:    inv.InvoiceNumber,
		IssueDate: inv.IssueDate,
		DueDate:   inv.DueDate,
		Company: render.Party{
			Name:    inv.CompanyName,
			Email:   inv.CompanyEmail,
			Address: inv.CompanyAddress,
			Phone:   inv.CompanyPhone,
			Website: inv.CompanyWebsite,
		},
		LogoRef: inv.CompanyLogo,
		Client: render.Party{
			Name:    inv.ClientName,
			Email:   inv.ClientEmail,
			Address: inv.ClientAddress,
		},
		Subtotal:       totals.Subtotal,
		TaxRate:        clampRate(inv.TaxRate),
		TaxAmount:      totals.TaxAmount,
		DiscountAmount: nonNegative(inv.DiscountAmount),
		Total:          totals.Total,
		Payment: render.Payment{
			BankName:      inv.BankName,
			AccountHolder: inv.BankAccountHolder,
			AccountNumber: inv.BankAccount,
			IFSC:          inv.IfscCode,
			UPIId:         inv.UpiId,
			QRRef:         inv.PaymentQRCode,
			Terms:         inv.PaymentTerms,
		},
		Notes: inv.Notes,
	}
	for _, d := range inv.Details {
		view.Items = append(view.Items, render.Item{
			Title:       d.Title,
			Description: d.Description,
			Quantity:    d.Quantity,
			Amount:      d.Amount,
		})
	}
	return view
}

// RenderView finalizes an unsaved draft, recomputing its totals first.
func (d *InvoiceDraft) RenderView() *render.Invoice {
	return d.ToInvoice().RenderView()
}
