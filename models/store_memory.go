package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mmdatafocus/invoice_backend/utils"
)

// MemoryStore keeps everything in process. Used by tests, the CLI and
// STORE_DRIVER=memory.
type MemoryStore struct {
	mu         sync.RWMutex
	invoices   map[int]*Invoice
	templates  map[int]*InvoiceTemplate
	nextID     int
	nextItemID int
	nextTplID  int
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:  map[int]*Invoice{},
		templates: map[int]*InvoiceTemplate{},
		now:       time.Now,
	}
}

func (s *MemoryStore) ListInvoices(ctx context.Context) ([]*Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Invoice, 0, len(s.invoices))
	for _, inv := range s.invoices {
		out = append(out, inv.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return inv.Clone(), nil
}

func (s *MemoryStore) InvoiceNumberTaken(ctx context.Context, number string, exceptId int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numberTakenLocked(number, exceptId), nil
}

func (s *MemoryStore) numberTakenLocked(number string, exceptId int) bool {
	for id, inv := range s.invoices {
		if id != exceptId && inv.InvoiceNumber == number {
			return true
		}
	}
	return false
}

func (s *MemoryStore) InsertInvoice(ctx context.Context, inv *Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.numberTakenLocked(inv.InvoiceNumber, 0) {
		return duplicateInvoiceNumberError()
	}
	s.nextID++
	inv.ID = s.nextID
	now := s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	s.assignItemIDsLocked(inv)
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

func (s *MemoryStore) SaveInvoice(ctx context.Context, inv *Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoices[inv.ID]
	if !ok {
		return utils.ErrorRecordNotFound
	}
	if s.numberTakenLocked(inv.InvoiceNumber, inv.ID) {
		return duplicateInvoiceNumberError()
	}
	inv.CreatedAt = existing.CreatedAt
	inv.UpdatedAt = s.now()
	s.assignItemIDsLocked(inv)
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

// items are replaced wholesale on save, so they always get fresh ids
func (s *MemoryStore) assignItemIDsLocked(inv *Invoice) {
	for i := range inv.Details {
		s.nextItemID++
		inv.Details[i].ID = s.nextItemID
		inv.Details[i].InvoiceId = inv.ID
		inv.Details[i].Position = i
	}
}

func (s *MemoryStore) DeleteInvoice(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.invoices[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.invoices, id)
	return nil
}

func (s *MemoryStore) ListTemplates(ctx context.Context) ([]*InvoiceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*InvoiceTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetTemplate(ctx context.Context, id int) (*InvoiceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return tpl.Clone(), nil
}

func (s *MemoryStore) InsertTemplate(ctx context.Context, tpl *InvoiceTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTplID++
	tpl.ID = s.nextTplID
	tpl.CreatedAt = s.now()
	s.templates[tpl.ID] = tpl.Clone()
	return nil
}

func (s *MemoryStore) DeleteTemplate(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.templates, id)
	return nil
}
