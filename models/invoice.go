package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypeEstimate DocumentType = "estimate"
)

func (t DocumentType) IsValid() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeEstimate
}

// OrDefault treats anything unknown as an invoice.
func (t DocumentType) OrDefault() DocumentType {
	if t.IsValid() {
		return t
	}
	return DocumentTypeInvoice
}

type Invoice struct {
	ID                int             `gorm:"primary_key" json:"id"`
	DocumentType      DocumentType    `gorm:"size:20;not null;default:invoice" json:"document_type"`
	InvoiceNumber     string          `gorm:"size:100;not null;uniqueIndex" json:"invoice_number"`
	IssueDate         string          `gorm:"size:10;not null" json:"issue_date"`
	DueDate           string          `gorm:"size:10" json:"due_date"`
	CompanyName       string          `gorm:"size:255;not null" json:"company_name"`
	CompanyEmail      string          `gorm:"size:255;not null" json:"company_email"`
	CompanyAddress    string          `gorm:"type:text" json:"company_address"`
	CompanyPhone      string          `gorm:"size:50" json:"company_phone"`
	CompanyWebsite    string          `gorm:"size:255" json:"company_website"`
	CompanyLogo       string          `gorm:"type:mediumtext" json:"company_logo"`
	ClientName        string          `gorm:"size:255;not null" json:"client_name"`
	ClientEmail       string          `gorm:"size:255" json:"client_email"`
	ClientAddress     string          `gorm:"type:text" json:"client_address"`
	Details           []InvoiceItem   `gorm:"foreignKey:InvoiceId" json:"items"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0" json:"tax_rate"`
	TaxAmount         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"tax_amount"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount_amount"`
	Total             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	BankName          string          `gorm:"size:255" json:"bank_name"`
	BankAccountHolder string          `gorm:"size:255" json:"bank_account_holder"`
	BankAccount       string          `gorm:"size:100" json:"bank_account"`
	IfscCode          string          `gorm:"size:20" json:"ifsc_code"`
	UpiId             string          `gorm:"size:100" json:"upi_id"`
	PaymentQRCode     string          `gorm:"type:mediumtext" json:"payment_qr_code"`
	PaymentTerms      string          `gorm:"size:255" json:"payment_terms"`
	Notes             string          `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
}

type NewInvoice struct {
	DocumentType      DocumentType       `json:"document_type" validate:"omitempty,oneof=invoice estimate"`
	InvoiceNumber     string             `json:"invoice_number" validate:"required,max=100"`
	IssueDate         string             `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate           string             `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	CompanyName       string             `json:"company_name" validate:"required,max=255"`
	CompanyEmail      string             `json:"company_email" validate:"required,email,max=255"`
	CompanyAddress    string             `json:"company_address"`
	CompanyPhone      string             `json:"company_phone" validate:"max=50"`
	CompanyWebsite    string             `json:"company_website" validate:"max=255"`
	CompanyLogo       string             `json:"company_logo"`
	ClientName        string             `json:"client_name" validate:"required,max=255"`
	ClientEmail       string             `json:"client_email" validate:"omitempty,email,max=255"`
	ClientAddress     string             `json:"client_address"`
	Items             []NewInvoiceItem   `json:"items" validate:"required,min=1,dive"`
	TaxRate           utils.InputDecimal `json:"tax_rate"`
	DiscountAmount    utils.InputDecimal `json:"discount_amount"`
	BankName          string             `json:"bank_name" validate:"max=255"`
	BankAccountHolder string             `json:"bank_account_holder" validate:"max=255"`
	BankAccount       string             `json:"bank_account" validate:"max=100"`
	IfscCode          string             `json:"ifsc_code" validate:"max=20"`
	UpiId             string             `json:"upi_id" validate:"max=100"`
	PaymentQRCode     string             `json:"payment_qr_code"`
	PaymentTerms      string             `json:"payment_terms" validate:"max=255"`
	Notes             string             `json:"notes"`
}

type NewInvoiceItem struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description"`
	Quantity    int                `json:"quantity" validate:"min=1"`
	Amount      utils.InputDecimal `json:"amount"`
}

// Normalize trims text fields and fills the document type default.
func (input *NewInvoice) Normalize() {
	input.DocumentType = DocumentType(strings.ToLower(strings.TrimSpace(string(input.DocumentType))))
	if input.DocumentType == "" {
		input.DocumentType = DocumentTypeInvoice
	}
	for _, s := range []*string{
		&input.InvoiceNumber, &input.IssueDate, &input.DueDate,
		&input.CompanyName, &input.CompanyEmail, &input.CompanyPhone, &input.CompanyWebsite, &input.CompanyLogo,
		&input.ClientName, &input.ClientEmail,
		&input.BankName, &input.BankAccountHolder, &input.BankAccount, &input.IfscCode, &input.UpiId,
		&input.PaymentQRCode, &input.PaymentTerms,
	} {
		*s = strings.TrimSpace(*s)
	}
	input.CompanyAddress = strings.TrimSpace(input.CompanyAddress)
	input.ClientAddress = strings.TrimSpace(input.ClientAddress)
	input.Notes = strings.TrimSpace(input.Notes)
	input.IfscCode = strings.ToUpper(input.IfscCode)
	for i := range input.Items {
		input.Items[i].Title = strings.TrimSpace(input.Items[i].Title)
		input.Items[i].Description = strings.TrimSpace(input.Items[i].Description)
	}
}

// Validate checks everything needed before an invoice may be stored.
// With strict set, numbers that did not parse are rejected instead of read as zero.
func (input *NewInvoice) Validate(strict bool) error {
	verr := &utils.ValidationError{}
	if err := utils.GetValidator().Struct(input); err != nil {
		for field, msg := range utils.ProcessValidationErrors(err) {
			verr.Add(field, msg)
		}
	}

	checkNumber := func(field string, in utils.InputDecimal, max *decimal.Decimal) {
		if in.Invalid {
			if strict {
				verr.Add(field, "must be a number")
			}
			return
		}
		if in.Value.IsNegative() {
			verr.Add(field, "must not be negative")
			return
		}
		if max != nil && in.Value.GreaterThan(*max) {
			verr.Add(field, "must be at most "+max.String())
		}
	}
	rateCap := hundred
	checkNumber("tax_rate", input.TaxRate, &rateCap)
	checkNumber("discount_amount", input.DiscountAmount, nil)
	for i, item := range input.Items {
		checkNumber(itemField(i, "amount"), item.Amount, nil)
	}

	if input.DueDate != "" && input.IssueDate != "" {
		issue, ierr := time.Parse(time.DateOnly, input.IssueDate)
		due, derr := time.Parse(time.DateOnly, input.DueDate)
		if ierr == nil && derr == nil && due.Before(issue) {
			verr.Add("due_date", "must not be before issue date")
		}
	}
	if input.CompanyPhone != "" {
		if err := utils.ValidatePhoneNumber(input.CompanyPhone, config.PhoneDefaultRegion()); err != nil {
			verr.Add("company_phone", "must be a valid phone number")
		}
	}
	return verr.OrNil()
}

func itemField(i int, name string) string {
	return "items[" + strconv.Itoa(i) + "]." + name
}

// ToInvoice copies the input into a new Invoice with freshly computed totals.
func (input *NewInvoice) ToInvoice() *Invoice {
	inv := &Invoice{}
	input.applyTo(inv)
	return inv
}

func (input *NewInvoice) applyTo(inv *Invoice) {
	inv.DocumentType = input.DocumentType.OrDefault()
	inv.InvoiceNumber = input.InvoiceNumber
	inv.IssueDate = input.IssueDate
	inv.DueDate = input.DueDate
	inv.CompanyName = input.CompanyName
	inv.CompanyEmail = input.CompanyEmail
	inv.CompanyAddress = input.CompanyAddress
	inv.CompanyPhone = input.CompanyPhone
	inv.CompanyWebsite = input.CompanyWebsite
	inv.CompanyLogo = input.CompanyLogo
	inv.ClientName = input.ClientName
	inv.ClientEmail = input.ClientEmail
	inv.ClientAddress = input.ClientAddress
	inv.BankName = input.BankName
	inv.BankAccountHolder = input.BankAccountHolder
	inv.BankAccount = input.BankAccount
	inv.IfscCode = input.IfscCode
	inv.UpiId = input.UpiId
	inv.PaymentQRCode = input.PaymentQRCode
	inv.PaymentTerms = input.PaymentTerms
	inv.Notes = input.Notes

	inv.Details = make([]InvoiceItem, len(input.Items))
	for i, item := range input.Items {
		inv.Details[i] = InvoiceItem{
			InvoiceId:   inv.ID,
			Position:    i,
			Title:       item.Title,
			Description: item.Description,
			Quantity:    normalizeQuantity(item.Quantity),
			Amount:      item.Amount.Decimal(),
		}
	}

	inv.TaxRate = clampRate(input.TaxRate.Decimal())
	inv.DiscountAmount = nonNegative(input.DiscountAmount.Decimal())
	totals := input.ComputeTotals()
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total
}

// ComputeTotals runs the totals engine over the input's items and rates.
func (input *NewInvoice) ComputeTotals() Totals {
	return RecomputeTotals(LineAmountsOf(input.Items), input.TaxRate.Decimal(), input.DiscountAmount.Decimal())
}

// ComputeTotals recomputes the totals from the stored items and rates.
func (inv *Invoice) ComputeTotals() Totals {
	return RecomputeTotals(LineAmountsOfDetails(inv.Details), inv.TaxRate, inv.DiscountAmount)
}

// Input converts a stored invoice back into an editable input.
func (inv *Invoice) Input() *NewInvoice {
	input := &NewInvoice{
		DocumentType:      inv.DocumentType,
		InvoiceNumber:     inv.InvoiceNumber,
		IssueDate:         inv.IssueDate,
		DueDate:           inv.DueDate,
		CompanyName:       inv.CompanyName,
		CompanyEmail:      inv.CompanyEmail,
		CompanyAddress:    inv.CompanyAddress,
		CompanyPhone:      inv.CompanyPhone,
		CompanyWebsite:    inv.CompanyWebsite,
		CompanyLogo:       inv.CompanyLogo,
		ClientName:        inv.ClientName,
		ClientEmail:       inv.ClientEmail,
		ClientAddress:     inv.ClientAddress,
		TaxRate:           utils.NewInputDecimal(inv.TaxRate),
		DiscountAmount:    utils.NewInputDecimal(inv.DiscountAmount),
		BankName:          inv.BankName,
		BankAccountHolder: inv.BankAccountHolder,
		BankAccount:       inv.BankAccount,
		IfscCode:          inv.IfscCode,
		UpiId:             inv.UpiId,
		PaymentQRCode:     inv.PaymentQRCode,
		PaymentTerms:      inv.PaymentTerms,
		Notes:             inv.Notes,
	}
	input.Items = make([]NewInvoiceItem, len(inv.Details))
	for i, d := range inv.Details {
		input.Items[i] = NewInvoiceItem{
			Title:       d.Title,
			Description: d.Description,
			Quantity:    d.Quantity,
			Amount:      utils.NewInputDecimal(d.Amount),
		}
	}
	return input
}

// Merge decodes a JSON object onto the input, keeping every field the object
// leaves out. A supplied items list replaces the current one.
func (input *NewInvoice) Merge(patch []byte) error {
	items := input.Items
	input.Items = nil
	if err := json.Unmarshal(patch, input); err != nil {
		input.Items = items
		return err
	}
	if input.Items == nil {
		input.Items = items
	}
	return nil
}

// Clone deep-copies the invoice including its items.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.Details = append([]InvoiceItem(nil), inv.Details...)
	return &c
}

// MarshalJSON writes money columns with two decimals; everything else is
// encoded as declared.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	type plain Invoice
	return json.Marshal(struct {
		plain
		Subtotal       string `json:"subtotal"`
		TaxAmount      string `json:"tax_amount"`
		DiscountAmount string `json:"discount_amount"`
		Total          string `json:"total"`
	}{
		plain:          plain(inv),
		Subtotal:       moneyString(inv.Subtotal),
		TaxAmount:      moneyString(inv.TaxAmount),
		DiscountAmount: moneyString(inv.DiscountAmount),
		Total:          moneyString(inv.Total),
	})
}

func (item InvoiceItem) MarshalJSON() ([]byte, error) {
	type plain InvoiceItem
	return json.Marshal(struct {
		plain
		Amount string `json:"amount"`
	}{plain(item), moneyString(item.Amount)})
}
