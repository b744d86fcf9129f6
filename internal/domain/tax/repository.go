package tax

import (
	"context"
)

// Repository defines the interface for tax code lookups
type Repository interface {
	// Find returns the codes matching the filter, ordered by zone, item key and code
	Find(ctx context.Context, filter *Filter) ([]*TaxCode, error)
}
