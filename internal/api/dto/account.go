package dto

import (
	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/shopspring/decimal"
)

// AccountResponse is a billing account with its standing credit
type AccountResponse struct {
	*account.Account
	AvailableCredit decimal.Decimal `json:"available_credit"`
}

func NewAccountResponse(acct *account.Account, balance *credit.Balance) *AccountResponse {
	resp := &AccountResponse{Account: acct, AvailableCredit: decimal.Zero}
	if balance != nil {
		resp.AvailableCredit = balance.AvailableCredit
	}
	return resp
}
