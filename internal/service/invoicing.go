package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/api/dto"
	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// GenerateInvoiceParams names the account and period to invoice
type GenerateInvoiceParams struct {
	UserID int64
	// StartDate is inclusive and EndDate exclusive, both calendar dates
	StartDate time.Time
	EndDate   time.Time
	// DryRun computes a draft without persisting anything or claiming credit
	DryRun bool
}

// Validate checks the period
func (p GenerateInvoiceParams) Validate() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return ierr.NewError("invoice period is required").
			WithHint("Provide both the start and end date of the invoice period").
			Mark(ierr.ErrValidation)
	}
	if !p.EndDate.After(p.StartDate) {
		return ierr.NewError("invoice period must end after it starts").
			WithHint("The end date must be after the start date").
			WithReportableDetails(map[string]any{
				"start_date": p.StartDate.Format(types.DateLayout),
				"end_date":   p.EndDate.Format(types.DateLayout),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoicingService generates and reads invoices
type InvoicingService interface {
	// AccountForUser returns the billing account of a user
	AccountForUser(ctx context.Context, userID int64) (*account.Account, error)

	// FindLatestInvoiceForAccount returns the invoice with the latest end date, or nil
	FindLatestInvoiceForAccount(ctx context.Context, accountID int64) (*invoice.Invoice, error)

	// GenerateInvoice rates usage for the period and assembles, and unless DryRun is
	// set persists, the invoice. It returns nil when there is nothing to bill.
	GenerateInvoice(ctx context.Context, params GenerateInvoiceParams) (*invoice.Invoice, error)

	// GetInvoice returns an invoice of the user with its items
	GetInvoice(ctx context.Context, userID int64, id uuid.UUID) (*invoice.Invoice, error)

	// ListInvoices returns a page of invoice headers and the total count
	ListInvoices(ctx context.Context, filter *invoice.Filter) (*dto.ListInvoicesResponse, error)
}

type invoicingService struct {
	ServiceParams
	usage  UsageService
	credit CreditService
	tax    *TaxCalculator
}

func NewInvoicingService(params ServiceParams) InvoicingService {
	return &invoicingService{
		ServiceParams: params,
		usage:         NewUsageService(params),
		credit:        NewCreditService(params),
		tax:           NewTaxCalculator(params.TaxCodeRepo, params.taxResolver(), params.Logger),
	}
}

func (s *invoicingService) AccountForUser(ctx context.Context, userID int64) (*account.Account, error) {
	acct, err := s.AccountRepo.GetForUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHintf("No billing account found for user %d", userID).
				WithReportableDetails(map[string]any{"user_id": userID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}
	return acct, nil
}

func (s *invoicingService) FindLatestInvoiceForAccount(ctx context.Context, accountID int64) (*invoice.Invoice, error) {
	filter := &invoice.Filter{
		QueryFilter: &types.QueryFilter{
			Limit:  lo.ToPtr(1),
			Offset: lo.ToPtr(0),
			Sort:   lo.ToPtr(string(types.InvoiceSortByEndDate)),
			Order:  lo.ToPtr(types.OrderDesc),
		},
		AccountID: lo.ToPtr(accountID),
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return invoices[0], nil
}

func (s *invoicingService) GenerateInvoice(ctx context.Context, params GenerateInvoiceParams) (*invoice.Invoice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	span, ctx := s.Sentry.StartInvoicingSpan(ctx, "generate_invoice", map[string]interface{}{
		"user_id":    params.UserID,
		"start_date": params.StartDate.Format(types.DateLayout),
		"end_date":   params.EndDate.Format(types.DateLayout),
		"dry_run":    params.DryRun,
	})

	var (
		result *invoice.Invoice
		err    error
	)
	if params.DryRun {
		// dry runs only read, so they take no transaction or row locks
		result, err = newGenerationRun(s, params).run(ctx)
	} else {
		err = s.DB.WithTx(ctx, func(ctx context.Context) error {
			inv, err := newGenerationRun(s, params).run(ctx)
			if err != nil {
				return err
			}
			result = inv
			return nil
		})
	}
	sentry.FinishSpan(span, err)
	if err != nil {
		return nil, err
	}

	if result != nil {
		s.Logger.Infow("generated invoice",
			"invoice_id", result.Identity.String(),
			"user_id", result.UserID,
			"account_id", result.AccountID,
			"start_date", result.StartDate.Format(types.DateLayout),
			"end_date", result.EndDate.Format(types.DateLayout),
			"items", len(result.Items),
			"total", result.TotalAmount().String(),
			"dry_run", params.DryRun,
		)
	}
	return result, nil
}

func (s *invoicingService) GetInvoice(ctx context.Context, userID int64, id uuid.UUID) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// another user's invoice is reported as missing
	if inv.UserID != userID {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %s not found", id).
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func (s *invoicingService) ListInvoices(ctx context.Context, filter *invoice.Filter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = invoice.NewDefaultFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	response := &dto.ListInvoicesResponse{
		Items: lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
			return dto.NewInvoiceResponse(inv)
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}
	return response, nil
}

// newInvoiceShell starts an invoice for the account and period with a snapshot of the
// account address. An account without a currency falls back to its country default.
func (s *invoicingService) newInvoiceShell(acct *account.Account, params GenerateInvoiceParams) (*invoice.Invoice, error) {
	currency := acct.CurrencyCode
	if currency == "" && acct.Address != nil {
		currency, _ = s.invoicingConfig().CurrencyForCountry(acct.Address.Country)
	}
	if currency == "" {
		return nil, ierr.NewError("account currency unknown").
			WithHint("The account has no currency and its country has no default").
			WithReportableDetails(map[string]any{
				"account_id": acct.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	return &invoice.Invoice{
		Identity:     invoice.Draft(),
		UserID:       acct.UserID,
		AccountID:    acct.ID,
		Address:      acct.Address.Copy(),
		CurrencyCode: currency,
		StartDate:    types.DateOf(params.StartDate),
		EndDate:      types.DateOf(params.EndDate),
		Items:        []*invoice.InvoiceItem{},
	}, nil
}

// addItems appends items to the invoice, storing each one first unless it is a draft
func (s *invoicingService) addItems(ctx context.Context, inv *invoice.Invoice, items ...*invoice.InvoiceItem) error {
	if !inv.Identity.IsDraft() {
		for _, item := range items {
			if err := s.InvoiceItemRepo.Create(ctx, item); err != nil {
				s.Logger.Errorw("failed to create invoice item",
					"error", err,
					"invoice_id", inv.Identity.String(),
					"item_type", item.ItemType,
					"key", item.Key,
				)
				return err
			}
		}
	}
	inv.AddItems(items...)
	return nil
}
