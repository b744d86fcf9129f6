package testutil

import (
	"context"
	"strconv"

	"github.com/flexprice/invoicer/internal/domain/account"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/samber/lo"
)

// InMemoryAccountStore implements account.Repository
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

// NewInMemoryAccountStore creates a new in-memory account store
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore[*account.Account](),
	}
}

func copyAccount(a *account.Account) *account.Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Address != nil {
		addr := *a.Address
		addr.Street = append([]string(nil), a.Address.Street...)
		c.Address = &addr
	}
	return &c
}

// Create seeds an account
func (s *InMemoryAccountStore) Create(ctx context.Context, a *account.Account) error {
	if a == nil {
		return ierr.NewError("account cannot be nil").Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, strconv.FormatInt(a.ID, 10), copyAccount(a))
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id int64) (*account.Account, error) {
	a, err := s.InMemoryStore.Get(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Account %d not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyAccount(a), nil
}

func (s *InMemoryAccountStore) GetForUser(ctx context.Context, userID int64) (*account.Account, error) {
	accounts, err := s.InMemoryStore.List(ctx, &account.Filter{UserIDs: []int64{userID}}, accountFilterFn, accountSortFn, nil)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ierr.NewError("account not found").
			WithHintf("No billing account for user %d", userID).
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrNotFound)
	}
	return copyAccount(accounts[0]), nil
}

func (s *InMemoryAccountStore) List(ctx context.Context, filter *account.Filter) ([]*account.Account, error) {
	if filter == nil {
		filter = account.NewDefaultFilter()
	}
	accounts, err := s.InMemoryStore.List(ctx, filter, accountFilterFn, accountSortFn, filter.QueryFilter)
	if err != nil {
		return nil, err
	}
	return lo.Map(accounts, func(a *account.Account, _ int) *account.Account {
		return copyAccount(a)
	}), nil
}

func (s *InMemoryAccountStore) Count(ctx context.Context, filter *account.Filter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, accountFilterFn)
}

func accountFilterFn(ctx context.Context, a *account.Account, filter interface{}) bool {
	if a == nil {
		return false
	}
	f, ok := filter.(*account.Filter)
	if !ok || f == nil {
		return true
	}
	if len(f.UserIDs) > 0 && !lo.Contains(f.UserIDs, a.UserID) {
		return false
	}
	return true
}

func accountSortFn(i, j *account.Account) bool {
	return i.ID < j.ID
}
