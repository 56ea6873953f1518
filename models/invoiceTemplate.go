package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/mmdatafocus/invoice_backend/utils"
)

// InvoiceTemplate is a named snapshot of draft fields for reuse.
// TemplateData is stored and returned byte for byte; it is only read back
// as a draft by DraftFromTemplate.
type InvoiceTemplate struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"not null;size:150" json:"name"`
	TemplateData json.RawMessage `gorm:"type:longtext;not null" json:"template_data"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewInvoiceTemplate struct {
	Name         string          `json:"name" validate:"required,max=150"`
	TemplateData json.RawMessage `json:"template_data"`
}

func (input *NewInvoiceTemplate) Validate() error {
	input.Name = strings.TrimSpace(input.Name)

	verr := &utils.ValidationError{}
	if err := utils.GetValidator().Struct(input); err != nil {
		for field, msg := range utils.ProcessValidationErrors(err) {
			verr.Add(field, msg)
		}
	}
	data := bytes.TrimSpace(input.TemplateData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		verr.Add("template_data", "is required")
	} else if !json.Valid(data) {
		verr.Add("template_data", "must be valid JSON")
	}
	return verr.OrNil()
}

func (input *NewInvoiceTemplate) ToTemplate() *InvoiceTemplate {
	return &InvoiceTemplate{
		Name:         input.Name,
		TemplateData: append(json.RawMessage(nil), input.TemplateData...),
	}
}

func (tpl *InvoiceTemplate) Clone() *InvoiceTemplate {
	c := *tpl
	c.TemplateData = append(json.RawMessage(nil), tpl.TemplateData...)
	return &c
}
