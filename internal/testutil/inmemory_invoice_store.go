package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// InMemoryInvoiceStore implements invoice.Repository. Get loads items from the
// item store it was created with.
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
	items *InMemoryInvoiceItemStore
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore(items *InMemoryInvoiceItemStore) *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		items:         items,
	}
}

func copyInvoiceHeader(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	c := *inv
	c.Items = nil
	c.Address = inv.Address.Copy()
	if inv.Address != nil {
		c.Address.ID = inv.Address.ID
	}
	c.NodeUsage = lo.Map(inv.NodeUsage, func(n *usage.RawUsageSnapshot, _ int) *usage.RawUsageSnapshot {
		snap := *n
		return &snap
	})
	return &c
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").Mark(ierr.ErrValidation)
	}
	if err := inv.Validate(); err != nil {
		return err
	}

	// mirrors the (account_id, start_date) unique constraint
	count, err := s.InMemoryStore.Count(ctx, nil, func(_ context.Context, existing *invoice.Invoice, _ interface{}) bool {
		return existing.AccountID == inv.AccountID && existing.StartDate.Equal(inv.StartDate)
	})
	if err != nil {
		return err
	}
	if count > 0 {
		return ierr.NewError("invoice already exists for period").
			WithHint("An invoice for this account and start date already exists").
			WithReportableDetails(map[string]any{
				"account_id": inv.AccountID,
				"start_date": inv.StartDate.Format(types.DateLayout),
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	id := types.NewEntityID()
	inv.Identity = invoice.Persisted(id)
	inv.CreatedAt = time.Now().UTC()
	if inv.Address != nil {
		inv.Address.ID = int64(s.InMemoryStore.Len() + 1)
	}
	return s.InMemoryStore.Create(ctx, id.String(), copyInvoiceHeader(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id.String())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice %s not found", id).
			Mark(ierr.ErrNotFound)
	}

	result := copyInvoiceHeader(inv)
	if s.items != nil {
		items, err := s.items.ListByInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Items = items
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *invoice.Filter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = invoice.NewDefaultFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn(filter), filter.QueryFilter)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoiceHeader(inv)
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *invoice.Filter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv == nil {
		return false
	}
	f, ok := filter.(*invoice.Filter)
	if !ok || f == nil {
		return true
	}
	if f.UserID != nil && inv.UserID != *f.UserID {
		return false
	}
	if f.AccountID != nil && inv.AccountID != *f.AccountID {
		return false
	}
	if len(f.IDs) > 0 && !lo.Contains(f.IDs, inv.ID()) {
		return false
	}
	return true
}

func invoiceSortFn(filter *invoice.Filter) SortFunc[*invoice.Invoice] {
	field := types.InvoiceSortField(filter.GetSort())
	desc := filter.GetOrder() == types.OrderDesc

	key := func(inv *invoice.Invoice) time.Time {
		switch field {
		case types.InvoiceSortByStartDate:
			return inv.StartDate
		case types.InvoiceSortByEndDate:
			return inv.EndDate
		default:
			return inv.CreatedAt
		}
	}

	return func(i, j *invoice.Invoice) bool {
		ki, kj := key(i), key(j)
		if ki.Equal(kj) {
			return i.ID().String() < j.ID().String()
		}
		if desc {
			return ki.After(kj)
		}
		return ki.Before(kj)
	}
}

// InMemoryInvoiceItemStore implements invoice.ItemRepository, keeping insertion order
type InMemoryInvoiceItemStore struct {
	mu    sync.RWMutex
	items []*invoice.InvoiceItem
}

// NewInMemoryInvoiceItemStore creates a new in-memory invoice item store
func NewInMemoryInvoiceItemStore() *InMemoryInvoiceItemStore {
	return &InMemoryInvoiceItemStore{}
}

func copyInvoiceItem(item *invoice.InvoiceItem) *invoice.InvoiceItem {
	c := *item
	if item.Metadata != nil {
		m := *item.Metadata
		c.Metadata = &m
	}
	return &c
}

func (s *InMemoryInvoiceItemStore) Create(ctx context.Context, item *invoice.InvoiceItem) error {
	if item == nil {
		return ierr.NewError("invoice item cannot be nil").Mark(ierr.ErrValidation)
	}
	if item.InvoiceID == invoice.DraftID {
		return ierr.NewError("cannot store an item of a draft invoice").
			WithHint("Draft invoices are never persisted").
			Mark(ierr.ErrInvalidOperation)
	}
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ID == item.ID {
			return ierr.NewError("invoice item already exists").
				WithReportableDetails(map[string]any{"id": item.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	stored := copyInvoiceItem(item)
	stored.Amount = types.RoundAmount(item.Amount)
	s.items = append(s.items, stored)
	return nil
}

func (s *InMemoryInvoiceItemStore) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*invoice.InvoiceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.InvoiceItem, 0)
	for _, item := range s.items {
		if item.InvoiceID == invoiceID {
			result = append(result, copyInvoiceItem(item))
		}
	}
	return result, nil
}

// Len returns the number of stored items across all invoices
func (s *InMemoryInvoiceItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all items
func (s *InMemoryInvoiceItemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
