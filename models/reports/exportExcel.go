package reports

import (
	"github.com/mmdatafocus/invoice_backend/models"
	"github.com/xuri/excelize/v2"
)

const InvoiceSheet = "Invoices"

var invoiceHeadings = []string{
	"Number", "Type", "Issue Date", "Due Date", "Client",
	"Subtotal", "Tax", "Discount", "Total",
}

// ExportInvoicesExcel writes one row per invoice under a bold heading row.
// Money columns are numeric cells formatted with two decimals.
func ExportInvoicesExcel(invoices []*models.Invoice) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		return nil, err
	}

	headStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	// 4 is the built-in "#,##0.00" format
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, h := range invoiceHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(InvoiceSheet, cell, h); err != nil {
			return nil, err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(invoiceHeadings))
	if err := f.SetCellStyle(InvoiceSheet, "A1", lastCol+"1", headStyle); err != nil {
		return nil, err
	}

	for i, inv := range invoices {
		row := i + 2
		values := []interface{}{
			inv.InvoiceNumber,
			string(inv.DocumentType.OrDefault()),
			inv.IssueDate,
			inv.DueDate,
			inv.ClientName,
			inv.Subtotal.Round(2).InexactFloat64(),
			inv.TaxAmount.Round(2).InexactFloat64(),
			inv.DiscountAmount.Round(2).InexactFloat64(),
			inv.Total.Round(2).InexactFloat64(),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(InvoiceSheet, start, &values); err != nil {
			return nil, err
		}
		from, _ := excelize.CoordinatesToCellName(6, row)
		to, _ := excelize.CoordinatesToCellName(9, row)
		if err := f.SetCellStyle(InvoiceSheet, from, to, moneyStyle); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(InvoiceSheet, "A", "E", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(InvoiceSheet, "F", "I", 14); err != nil {
		return nil, err
	}
	return f, nil
}
