package credit

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the account credit ledger
type Repository interface {
	// ClaimAccountBalanceCredit atomically debits min(available, upTo) from the account
	// balance and reports what was taken. A missing balance claims nothing.
	ClaimAccountBalanceCredit(ctx context.Context, accountID int64, upTo decimal.Decimal) (*Claim, error)

	// GetBalanceForUser reads the balance of a user's account without changing it.
	// A user without a balance row has zero credit.
	GetBalanceForUser(ctx context.Context, userID int64) (*Balance, error)
}
