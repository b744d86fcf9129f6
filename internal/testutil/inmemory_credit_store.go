package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/shopspring/decimal"
)

// InMemoryCreditStore implements credit.Repository. Claims are serialised by the store
// lock, matching the atomic conditional update of the database implementation.
type InMemoryCreditStore struct {
	mu       sync.Mutex
	balances map[int64]*credit.Balance
	claims   []credit.Claim
}

// NewInMemoryCreditStore creates a new in-memory credit store
func NewInMemoryCreditStore() *InMemoryCreditStore {
	return &InMemoryCreditStore{
		balances: make(map[int64]*credit.Balance),
	}
}

// SetBalance seeds the available credit of an account
func (s *InMemoryCreditStore) SetBalance(accountID, userID int64, available decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[accountID] = &credit.Balance{
		AccountID:       accountID,
		UserID:          userID,
		AvailableCredit: available,
		UpdatedAt:       time.Now().UTC(),
	}
}

// Available returns the current balance of an account
func (s *InMemoryCreditStore) Available(accountID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.balances[accountID]; ok {
		return b.AvailableCredit
	}
	return decimal.Zero
}

// Claims returns every non-zero claim made so far
func (s *InMemoryCreditStore) Claims() []credit.Claim {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]credit.Claim(nil), s.claims...)
}

func (s *InMemoryCreditStore) ClaimAccountBalanceCredit(ctx context.Context, accountID int64, upTo decimal.Decimal) (*credit.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim := &credit.Claim{AccountID: accountID, Claimed: decimal.Zero, AvailableAfter: decimal.Zero}
	b, ok := s.balances[accountID]
	if !ok {
		return claim, nil
	}

	claimed := b.ClaimAmount(upTo)
	claim.AvailableAfter = b.AvailableCredit
	if claimed.IsZero() {
		return claim, nil
	}

	b.AvailableCredit = b.AvailableCredit.Sub(claimed)
	b.UpdatedAt = time.Now().UTC()
	claim.Claimed = claimed
	claim.AvailableAfter = b.AvailableCredit
	s.claims = append(s.claims, *claim)
	return claim, nil
}

func (s *InMemoryCreditStore) GetBalanceForUser(ctx context.Context, userID int64) (*credit.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.balances {
		if b.UserID == userID {
			c := *b
			return &c, nil
		}
	}
	return &credit.Balance{UserID: userID, AvailableCredit: decimal.Zero}, nil
}

// Clear removes all balances and claims
func (s *InMemoryCreditStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = make(map[int64]*credit.Balance)
	s.claims = nil
}
