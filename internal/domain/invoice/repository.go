package invoice

import (
	"context"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
)

// Filter selects invoices
type Filter struct {
	*types.QueryFilter
	UserID    *int64      `json:"user_id,omitempty" form:"-"`
	AccountID *int64      `json:"account_id,omitempty" form:"-"`
	IDs       []uuid.UUID `json:"ids,omitempty" form:"-"`
}

// NewDefaultFilter returns a filter with default pagination
func NewDefaultFilter() *Filter {
	return &Filter{QueryFilter: types.NewDefaultQueryFilter()}
}

// Validate checks pagination and the sort field
func (f *Filter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	return types.InvoiceSortField(f.GetSort()).Validate()
}

// Repository defines the interface for invoice header persistence operations
type Repository interface {
	// Create stores the invoice header (without items) and assigns its persisted identity
	Create(ctx context.Context, inv *Invoice) error

	// Get retrieves an invoice and its items by id
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// List retrieves invoice headers based on filter criteria
	List(ctx context.Context, filter *Filter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *Filter) (int, error)
}

// ItemRepository defines the interface for invoice item persistence operations
type ItemRepository interface {
	// Create stores a single item
	Create(ctx context.Context, item *InvoiceItem) error

	// ListByInvoice retrieves the items of an invoice in creation order
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error)
}
