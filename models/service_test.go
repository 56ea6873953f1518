package models

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/invoice_backend/config"
	"github.com/mmdatafocus/invoice_backend/utils"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []config.InvoiceEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event config.InvoiceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Action
	}
	return out
}

type countingLocker struct {
	locked   []string
	unlocked int
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.locked = append(l.locked, key)
	return func() { l.unlocked++ }, nil
}

func newTestService() (*InvoiceService, *recordingPublisher, *countingLocker) {
	events := &recordingPublisher{}
	locker := &countingLocker{}
	s := NewInvoiceService(NewMemoryStore())
	s.Events = events
	s.Locker = locker
	return s, events, locker
}

func TestInvoiceService_CreateInvoice(t *testing.T) {
	ctx := utils.SetCorrelationIdInContext(context.Background(), "cid-1")
	s, events, locker := newTestService()

	inv, err := s.CreateInvoice(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	assertTotals(t, Totals{Subtotal: inv.Subtotal, TaxAmount: inv.TaxAmount, Total: inv.Total}, "1120.50", "112.05", "1182.55")

	if len(locker.locked) != 1 || locker.locked[0] != "invoice_number:INV-100" || locker.unlocked != 1 {
		t.Fatalf("expected one lock/unlock on the number, got %v / %d", locker.locked, locker.unlocked)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Action != EventInvoiceCreated || ev.ReferenceId != inv.ID || ev.Total != "1182.55" || ev.CorrelationId != "cid-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestInvoiceService_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	s, events, _ := newTestService()

	if _, err := s.CreateInvoice(ctx, validInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateInvoice(ctx, validInput())
	fields := validationFields(t, err)
	if _, ok := fields["invoice_number"]; !ok {
		t.Fatalf("expected invoice_number error, got %v", fields)
	}

	list, _ := s.ListInvoices(ctx)
	if len(list) != 1 {
		t.Fatalf("duplicate created a record: %d invoices", len(list))
	}
	if len(events.events) != 1 {
		t.Fatalf("failed create must not publish, got %v", events.actions())
	}
}

func TestInvoiceService_UpdateInvoice(t *testing.T) {
	ctx := context.Background()
	s, events, _ := newTestService()

	first, err := s.CreateInvoice(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other := validInput()
	other.InvoiceNumber = "INV-200"
	second, err := s.CreateInvoice(ctx, other)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	clash := validInput()
	clash.InvoiceNumber = "INV-200"
	if _, err := s.UpdateInvoice(ctx, first.ID, clash); err == nil {
		t.Fatalf("expected duplicate error when taking another invoice's number")
	}

	update := validInput()
	update.Items = update.Items[:1]
	update.DiscountAmount = utils.NewInputDecimal(dec("0"))
	updated, err := s.UpdateInvoice(ctx, first.ID, update)
	if err != nil {
		t.Fatalf("update keeping own number: %v", err)
	}
	assertTotals(t, Totals{Subtotal: updated.Subtotal, TaxAmount: updated.TaxAmount, Total: updated.Total}, "1000", "100", "1100")
	if updated.ID != first.ID || len(updated.Details) != 1 {
		t.Fatalf("unexpected updated invoice %+v", updated)
	}

	stored, _ := s.GetInvoice(ctx, second.ID)
	if stored.InvoiceNumber != "INV-200" {
		t.Fatalf("other invoice changed")
	}

	if _, err := s.UpdateInvoice(ctx, 999, validInput()); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	actions := events.actions()
	if actions[len(actions)-1] != EventInvoiceUpdated {
		t.Fatalf("expected last event to be an update, got %v", actions)
	}
}

func TestInvoiceService_DeleteInvoice(t *testing.T) {
	ctx := context.Background()
	s, events, _ := newTestService()

	inv, err := s.CreateInvoice(ctx, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetInvoice(ctx, inv.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.DeleteInvoice(ctx, inv.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	got := events.actions()
	if len(got) != 2 || got[1] != EventInvoiceDeleted {
		t.Fatalf("unexpected events %v", got)
	}
}

func TestInvoiceService_PublishFailureDoesNotFailCreate(t *testing.T) {
	s, events, _ := newTestService()
	events.err = errors.New("pubsub down")

	if _, err := s.CreateInvoice(context.Background(), validInput()); err != nil {
		t.Fatalf("publish failure leaked into create: %v", err)
	}
}

func TestInvoiceService_Templates(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestService()

	if _, err := s.CreateTemplate(ctx, &NewInvoiceTemplate{Name: "Broken", TemplateData: json.RawMessage(`{nope`)}); err == nil {
		t.Fatalf("expected invalid JSON to be rejected")
	}
	if _, err := s.CreateTemplate(ctx, &NewInvoiceTemplate{Name: " ", TemplateData: json.RawMessage(`{}`)}); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}

	data, _ := json.Marshal(validInput())
	tpl, err := s.CreateTemplate(ctx, &NewInvoiceTemplate{Name: "Monthly retainer", TemplateData: data})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	draft, err := s.ApplyTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	assertTotals(t, draft.Totals, "1120.50", "112.05", "1182.55")

	if err := s.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := s.ApplyTemplate(ctx, tpl.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
