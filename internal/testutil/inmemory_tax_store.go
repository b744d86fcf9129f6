package testutil

import (
	"context"
	"strconv"
	"strings"

	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/samber/lo"
)

// InMemoryTaxCodeStore implements tax.Repository
type InMemoryTaxCodeStore struct {
	*InMemoryStore[*tax.TaxCode]
	nextID int64
}

// NewInMemoryTaxCodeStore creates a new in-memory tax code store
func NewInMemoryTaxCodeStore() *InMemoryTaxCodeStore {
	return &InMemoryTaxCodeStore{
		InMemoryStore: NewInMemoryStore[*tax.TaxCode](),
	}
}

// Create seeds a tax code, assigning an id when missing
func (s *InMemoryTaxCodeStore) Create(ctx context.Context, code *tax.TaxCode) error {
	if code.ID == 0 {
		s.nextID++
		code.ID = s.nextID
	}
	c := *code
	return s.InMemoryStore.Create(ctx, strconv.FormatInt(code.ID, 10), &c)
}

func (s *InMemoryTaxCodeStore) Find(ctx context.Context, filter *tax.Filter) ([]*tax.TaxCode, error) {
	codes, err := s.InMemoryStore.List(ctx, filter, taxCodeFilterFn, taxCodeSortFn, nil)
	if err != nil {
		return nil, err
	}
	return lo.Map(codes, func(c *tax.TaxCode, _ int) *tax.TaxCode {
		cp := *c
		return &cp
	}), nil
}

func taxCodeFilterFn(ctx context.Context, c *tax.TaxCode, filter interface{}) bool {
	f, _ := filter.(*tax.Filter)
	return f.Matches(c)
}

func taxCodeSortFn(i, j *tax.TaxCode) bool {
	if i.Zone != j.Zone {
		return i.Zone < j.Zone
	}
	if ki, kj := strings.ToLower(i.ItemKey), strings.ToLower(j.ItemKey); ki != kj {
		return ki < kj
	}
	return i.Code < j.Code
}
