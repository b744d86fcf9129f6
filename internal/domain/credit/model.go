package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the standing credit of an account
type Balance struct {
	AccountID       int64           `json:"account_id"`
	UserID          int64           `json:"user_id"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ClaimAmount returns how much of the balance a claim of upTo would take
func (b *Balance) ClaimAmount(upTo decimal.Decimal) decimal.Decimal {
	if b == nil || !upTo.IsPositive() || !b.AvailableCredit.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(b.AvailableCredit, upTo)
}

// Claim is the outcome of debiting an account balance
type Claim struct {
	AccountID      int64           `json:"account_id"`
	Claimed        decimal.Decimal `json:"claimed"`
	AvailableAfter decimal.Decimal `json:"available_after"`
}
