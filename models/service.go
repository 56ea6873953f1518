package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("invoice_backend/models")

const (
	EventInvoiceCreated  = "invoice.created"
	EventInvoiceUpdated  = "invoice.updated"
	EventInvoiceDeleted  = "invoice.deleted"
	EventTemplateCreated = "template.created"
	EventTemplateDeleted = "template.deleted"

	invoiceNumberLockTTL = 10 * time.Second
)

type EventPublisher interface {
	Publish(ctx context.Context, event config.InvoiceEvent) error
}

type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// InvoiceService validates and persists invoices and templates on top of
// an InvoiceStore. Events, Locker and the redis cache are optional.
type InvoiceService struct {
	Store         InvoiceStore
	Events        EventPublisher
	Locker        Locker
	Logger        *logrus.Logger
	UseCache      bool
	StrictNumeric bool
}

func NewInvoiceService(store InvoiceStore) *InvoiceService {
	return &InvoiceService{Store: store, Logger: config.GetLogger()}
}

func (s *InvoiceService) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	invoices, err := s.Store.ListInvoices(ctx)
	if err != nil {
		return nil, utils.NewUnexpectedError("ListInvoices", err)
	}
	return invoices, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	if s.UseCache {
		cached, err := utils.RetrieveRedis[Invoice](ctx, id)
		if err != nil {
			s.warn("GetInvoice", "redis read failed: "+err.Error())
		} else if cached != nil {
			return cached, nil
		}
	}

	inv, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return nil, utils.NewUnexpectedError("GetInvoice", err)
	}
	if s.UseCache {
		if err := utils.StoreRedis(ctx, inv, inv.ID); err != nil {
			s.warn("GetInvoice", "redis write failed: "+err.Error())
		}
	}
	return inv, nil
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, input *NewInvoice) (_ *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.CreateInvoice")
	defer func() { endSpan(span, err) }()

	input.Normalize()
	if err := input.Validate(s.StrictNumeric); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("invoice.number", input.InvoiceNumber))

	unlock := s.lockNumber(ctx, input.InvoiceNumber)
	defer unlock()

	taken, err := s.Store.InvoiceNumberTaken(ctx, input.InvoiceNumber, 0)
	if err != nil {
		return nil, utils.NewUnexpectedError("CreateInvoice", err)
	}
	if taken {
		return nil, duplicateInvoiceNumberError()
	}

	inv := input.ToInvoice()
	if err := s.Store.InsertInvoice(ctx, inv); err != nil {
		return nil, utils.NewUnexpectedError("CreateInvoice", err)
	}

	s.publish(ctx, EventInvoiceCreated, inv)
	return inv, nil
}

// UpdateInvoice replaces every field and item of an existing invoice.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id int, input *NewInvoice) (_ *Invoice, err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.UpdateInvoice")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int("invoice.id", id))

	existing, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return nil, utils.NewUnexpectedError("UpdateInvoice", err)
	}

	input.Normalize()
	if err := input.Validate(s.StrictNumeric); err != nil {
		return nil, err
	}

	if input.InvoiceNumber != existing.InvoiceNumber {
		unlock := s.lockNumber(ctx, input.InvoiceNumber)
		defer unlock()

		taken, err := s.Store.InvoiceNumberTaken(ctx, input.InvoiceNumber, id)
		if err != nil {
			return nil, utils.NewUnexpectedError("UpdateInvoice", err)
		}
		if taken {
			return nil, duplicateInvoiceNumberError()
		}
	}

	inv := existing.Clone()
	input.applyTo(inv)
	if err := s.Store.SaveInvoice(ctx, inv); err != nil {
		return nil, utils.NewUnexpectedError("UpdateInvoice", err)
	}
	s.invalidate(ctx, id)
	s.publish(ctx, EventInvoiceUpdated, inv)
	return inv, nil
}

func (s *InvoiceService) DeleteInvoice(ctx context.Context, id int) (err error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.DeleteInvoice")
	defer func() { endSpan(span, err) }()

	existing, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return utils.NewUnexpectedError("DeleteInvoice", err)
	}
	if err := s.Store.DeleteInvoice(ctx, id); err != nil {
		return utils.NewUnexpectedError("DeleteInvoice", err)
	}
	s.invalidate(ctx, id)
	s.publish(ctx, EventInvoiceDeleted, existing)
	return nil
}

func (s *InvoiceService) ListTemplates(ctx context.Context) ([]*InvoiceTemplate, error) {
	templates, err := s.Store.ListTemplates(ctx)
	if err != nil {
		return nil, utils.NewUnexpectedError("ListTemplates", err)
	}
	return templates, nil
}

func (s *InvoiceService) GetTemplate(ctx context.Context, id int) (*InvoiceTemplate, error) {
	tpl, err := s.Store.GetTemplate(ctx, id)
	if err != nil {
		return nil, utils.NewUnexpectedError("GetTemplate", err)
	}
	return tpl, nil
}

func (s *InvoiceService) CreateTemplate(ctx context.Context, input *NewInvoiceTemplate) (*InvoiceTemplate, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	tpl := input.ToTemplate()
	if err := s.Store.InsertTemplate(ctx, tpl); err != nil {
		return nil, utils.NewUnexpectedError("CreateTemplate", err)
	}
	s.publishEvent(ctx, config.InvoiceEvent{
		Action:        EventTemplateCreated,
		ReferenceType: "template",
		ReferenceId:   tpl.ID,
	})
	return tpl, nil
}

func (s *InvoiceService) DeleteTemplate(ctx context.Context, id int) error {
	if err := s.Store.DeleteTemplate(ctx, id); err != nil {
		return utils.NewUnexpectedError("DeleteTemplate", err)
	}
	s.publishEvent(ctx, config.InvoiceEvent{
		Action:        EventTemplateDeleted,
		ReferenceType: "template",
		ReferenceId:   id,
	})
	return nil
}

// ApplyTemplate loads a template and turns its snapshot into a new draft.
func (s *InvoiceService) ApplyTemplate(ctx context.Context, id int) (*InvoiceDraft, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return DraftFromTemplate(tpl)
}

func (s *InvoiceService) lockNumber(ctx context.Context, number string) func() {
	if s.Locker == nil {
		return func() {}
	}
	unlock, err := s.Locker.Lock(ctx, "invoice_number:"+number, invoiceNumberLockTTL)
	if err != nil || unlock == nil {
		return func() {}
	}
	return unlock
}

func (s *InvoiceService) invalidate(ctx context.Context, id int) {
	if !s.UseCache {
		return
	}
	if err := utils.RemoveRedisItem[Invoice](ctx, id); err != nil {
		s.warn("invalidate", "redis delete failed: "+err.Error())
	}
}

func (s *InvoiceService) publish(ctx context.Context, action string, inv *Invoice) {
	s.publishEvent(ctx, config.InvoiceEvent{
		Action:        action,
		ReferenceType: "invoice",
		ReferenceId:   inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		DocumentType:  string(inv.DocumentType),
		Total:         inv.Total.StringFixed(2),
	})
}

// Events are best effort: a failed publish is logged and never fails the call.
func (s *InvoiceService) publishEvent(ctx context.Context, event config.InvoiceEvent) {
	if s.Events == nil {
		return
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		event.CorrelationId = cid
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.warn("publishEvent", event.Action+" publish failed: "+err.Error())
	}
}

func (s *InvoiceService) warn(funcName, msg string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"module":   "InvoiceService",
		"funcName": funcName,
	}).Warn(msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		var verr *utils.ValidationError
		if !errors.As(err, &verr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
