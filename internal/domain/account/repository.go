package account

import (
	"context"

	"github.com/flexprice/invoicer/internal/types"
)

// Filter selects billing accounts, in ascending id order
type Filter struct {
	*types.QueryFilter
	UserIDs []int64
}

// NewDefaultFilter returns a filter with default pagination
func NewDefaultFilter() *Filter {
	return &Filter{QueryFilter: types.NewDefaultQueryFilter()}
}

// Repository defines the interface for account persistence operations
type Repository interface {
	// Get retrieves an account by its id
	Get(ctx context.Context, id int64) (*Account, error)

	// GetForUser retrieves the billing account of a user
	GetForUser(ctx context.Context, userID int64) (*Account, error)

	// List retrieves accounts ordered by id
	List(ctx context.Context, filter *Filter) ([]*Account, error)

	// Count returns the number of accounts matching the filter
	Count(ctx context.Context, filter *Filter) (int, error)
}
