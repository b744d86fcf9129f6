package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/flexprice/invoicer/internal/api/dto"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/account"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

// InvoiceGenerator brings every billing account's invoices up to date
type InvoiceGenerator interface {
	// GenerateInvoices invoices each account month by month until endDate. A failing
	// account does not stop the run; all failures are returned together with the summary.
	// The summary is nil only when the run itself could not proceed.
	GenerateInvoices(ctx context.Context, endDate time.Time, dryRun bool) (*dto.GenerateInvoicesResponse, error)

	// GenerateInvoicesForAccount invoices one account until endDate and returns how
	// many invoices were produced
	GenerateInvoicesForAccount(ctx context.Context, acct *account.Account, endDate time.Time, dryRun bool) (int, error)
}

type invoiceGenerator struct {
	ServiceParams
	invoicing InvoicingService
}

func NewInvoiceGenerator(params ServiceParams, invoicing InvoicingService) InvoiceGenerator {
	return &invoiceGenerator{
		ServiceParams: params,
		invoicing:     invoicing,
	}
}

// accountOutcome is the result of processing one account in a batch
type accountOutcome struct {
	generated int
	skipped   bool
	err       error
}

func (g *invoiceGenerator) GenerateInvoices(ctx context.Context, endDate time.Time, dryRun bool) (*dto.GenerateInvoicesResponse, error) {
	cfg := g.invoicingConfig()
	batchSize := lo.Ternary(cfg.BatchSize > 0, cfg.BatchSize, config.DefaultInvoicingConfig().BatchSize)
	concurrency := lo.Ternary(cfg.Concurrency > 0, cfg.Concurrency, 1)

	batchID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BATCH)
	log := g.Logger.With("batch_id", batchID, "end_date", endDate.Format(types.DateLayout), "dry_run", dryRun)
	log.Infow("starting invoice generation run", "batch_size", batchSize, "concurrency", concurrency)

	var (
		mu       sync.Mutex
		errs     *multierror.Error
		response = &dto.GenerateInvoicesResponse{}
	)

	record := func(acct *account.Account, outcome accountOutcome) {
		mu.Lock()
		defer mu.Unlock()

		response.Accounts++
		response.Generated += outcome.generated
		if outcome.skipped {
			response.Skipped++
		}
		if outcome.err != nil {
			response.Failed++
			wrapped := fmt.Errorf("account %d: %w", acct.ID, outcome.err)
			response.Errors = append(response.Errors, wrapped.Error())
			errs = multierror.Append(errs, wrapped)
		}
	}

	for offset := 0; ; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		filter := account.NewDefaultFilter()
		filter.Limit = lo.ToPtr(batchSize)
		filter.Offset = lo.ToPtr(offset)

		accounts, err := g.AccountRepo.List(ctx, filter)
		if err != nil {
			log.Errorw("failed to list billing accounts", "error", err, "offset", offset)
			return nil, err
		}

		p := pool.New().WithMaxGoroutines(concurrency)
		for _, acct := range accounts {
			acct := acct
			p.Go(func() {
				record(acct, g.processAccount(ctx, acct, endDate, dryRun))
			})
		}
		p.Wait()

		if len(accounts) < batchSize {
			break
		}
	}

	log.Infow("finished invoice generation run",
		"accounts", response.Accounts,
		"generated", response.Generated,
		"skipped", response.Skipped,
		"failed", response.Failed,
	)

	if err := errs.ErrorOrNil(); err != nil {
		log.Errorw("invoice generation run had failures", "error", err)
		return response, err
	}
	return response, nil
}

// processAccount runs one account under its generation lock, reporting failures to
// sentry. Panics are left to the pool.
func (g *invoiceGenerator) processAccount(ctx context.Context, acct *account.Account, endDate time.Time, dryRun bool) accountOutcome {
	if !dryRun && g.Locker != nil {
		lease, ok, err := g.Locker.TryLock(ctx, generationLockKey(acct.ID))
		if err != nil {
			return g.failed(acct, err)
		}
		if !ok {
			g.Logger.Infow("account invoicing already in progress, skipping",
				"account_id", acct.ID,
				"user_id", acct.UserID,
			)
			return accountOutcome{skipped: true}
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				g.Logger.Warnw("failed to release generation lock", "error", err, "account_id", acct.ID)
			}
		}()
	}

	generated, err := g.GenerateInvoicesForAccount(ctx, acct, endDate, dryRun)
	if err != nil {
		return g.failed(acct, err)
	}
	return accountOutcome{generated: generated, skipped: generated == 0}
}

func (g *invoiceGenerator) failed(acct *account.Account, err error) accountOutcome {
	g.Logger.Errorw("failed to generate invoices for account",
		"error", err,
		"account_id", acct.ID,
		"user_id", acct.UserID,
	)
	g.Sentry.CaptureAccountException(err, acct.ID, map[string]string{
		"user_id":   strconv.FormatInt(acct.UserID, 10),
		"operation": "generate_invoices",
	})
	return accountOutcome{err: err}
}

func (g *invoiceGenerator) GenerateInvoicesForAccount(ctx context.Context, acct *account.Account, endDate time.Time, dryRun bool) (int, error) {
	loc, err := acct.TimeZone()
	if err != nil {
		return 0, err
	}

	invoiceEnd := types.AtStartOfDay(endDate, loc)

	through, err := g.invoicedThrough(ctx, acct, invoiceEnd.AddDate(0, -1, 0))
	if err != nil {
		return 0, err
	}
	if !through.Before(invoiceEnd) {
		g.Logger.Debugw("account invoicing up to date",
			"account_id", acct.ID,
			"user_id", acct.UserID,
			"invoiced_through", through.Format(types.DateLayout),
		)
		return 0, nil
	}

	generated := 0
	for curr := through; curr.Before(invoiceEnd); curr = curr.AddDate(0, 1, 0) {
		if err := ctx.Err(); err != nil {
			return generated, err
		}

		start, end := types.DateOf(curr), types.DateOf(curr.AddDate(0, 1, 0))
		g.Logger.Infow("generating invoice for account",
			"account_id", acct.ID,
			"user_id", acct.UserID,
			"start_date", start.Format(types.DateLayout),
			"end_date", end.Format(types.DateLayout),
		)

		inv, err := g.invoicing.GenerateInvoice(ctx, GenerateInvoiceParams{
			UserID:    acct.UserID,
			StartDate: start,
			EndDate:   end,
			DryRun:    dryRun,
		})
		if err != nil {
			return generated, err
		}
		if inv != nil {
			generated++
		}
	}
	return generated, nil
}

// invoicedThrough returns the instant invoicing is complete up to: the end of the
// latest invoice in its own zone, or initial when the account was never invoiced.
func (g *invoiceGenerator) invoicedThrough(ctx context.Context, acct *account.Account, initial time.Time) (time.Time, error) {
	latest, err := g.invoicing.FindLatestInvoiceForAccount(ctx, acct.ID)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return initial, nil
	}

	loc, err := latest.TimeZone()
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Invoice %s has no time zone", latest.Identity.String()).
			Mark(ierr.ErrDataIntegrity)
	}
	return types.AtStartOfDay(latest.EndDate, loc), nil
}

func generationLockKey(accountID int64) string {
	return "invoice-generation:account:" + strconv.FormatInt(accountID, 10)
}
