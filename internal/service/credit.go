package service

import (
	"context"

	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// CreditService applies standing account credit to invoices
type CreditService interface {
	// ApplyCredit returns the credit item for inv, or nil when no credit applies.
	// A dry run reads the balance and previews the same item without claiming.
	ApplyCredit(ctx context.Context, inv *invoice.Invoice, dryRun bool) (*invoice.InvoiceItem, error)

	// GetBalanceForUser returns the standing credit of a user's account
	GetBalanceForUser(ctx context.Context, userID int64) (*credit.Balance, error)
}

type creditService struct {
	ServiceParams
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{ServiceParams: params}
}

func (s *creditService) ApplyCredit(ctx context.Context, inv *invoice.Invoice, dryRun bool) (*invoice.InvoiceItem, error) {
	cfg := s.invoicingConfig()
	if !cfg.ApplyCredit {
		return nil, nil
	}

	total := inv.TotalAmount()
	if !total.IsPositive() {
		return nil, nil
	}

	var claimed, availableAfter decimal.Decimal
	if dryRun {
		balance, err := s.CreditRepo.GetBalanceForUser(ctx, inv.UserID)
		if err != nil {
			return nil, err
		}
		claimed = balance.ClaimAmount(total)
		availableAfter = balance.AvailableCredit.Sub(claimed)
	} else {
		claim, err := s.CreditRepo.ClaimAccountBalanceCredit(ctx, inv.AccountID, total)
		if err != nil {
			s.Logger.Errorw("failed to claim account credit",
				"error", err,
				"account_id", inv.AccountID,
				"invoice_id", inv.Identity.String(),
				"up_to", total.String(),
			)
			return nil, err
		}
		claimed = claim.Claimed
		availableAfter = claim.AvailableAfter
	}

	if !claimed.IsPositive() {
		return nil, nil
	}

	s.Logger.Debugw("applying account credit",
		"account_id", inv.AccountID,
		"invoice_id", inv.Identity.String(),
		"claimed", claimed.String(),
		"available_after", availableAfter.String(),
		"dry_run", dryRun,
	)

	return &invoice.InvoiceItem{
		ID:        types.NewEntityID(),
		InvoiceID: inv.ID(),
		ItemType:  types.InvoiceItemTypeCredit,
		Key:       cfg.CreditKey,
		Quantity:  decimal.NewFromInt(1),
		Amount:    claimed.Neg(),
		Metadata: &invoice.ItemMetadata{
			AvailableCreditAfter: &availableAfter,
		},
	}, nil
}

func (s *creditService) GetBalanceForUser(ctx context.Context, userID int64) (*credit.Balance, error) {
	return s.CreditRepo.GetBalanceForUser(ctx, userID)
}
