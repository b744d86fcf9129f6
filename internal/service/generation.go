package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/qmuntal/stateless"
)

type generationState string

const (
	stateStart            generationState = "start"
	stateAccountResolved  generationState = "account_resolved"
	stateUsageFetched     generationState = "usage_fetched"
	stateNoInvoiceNeeded  generationState = "no_invoice_needed"
	stateIdentityAssigned generationState = "identity_assigned"
	stateItemsBuilt       generationState = "items_built"
	stateTaxed            generationState = "taxed"
	stateCredited         generationState = "credited"
	stateDone             generationState = "done"
)

// every transition is taken on the same trigger; guards pick the destination
const triggerAdvance = "advance"

// generationRun carries the data of one invoice generation through its states
type generationRun struct {
	svc    *invoicingService
	params GenerateInvoiceParams

	account   *account.Account
	snapshots []*usage.RawUsageSnapshot
	rated     []*usage.RatedUsage
	invoice   *invoice.Invoice

	// visited records entered states in order
	visited []generationState
}

func newGenerationRun(svc *invoicingService, params GenerateInvoiceParams) *generationRun {
	return &generationRun{svc: svc, params: params}
}

// newMachine wires the states. A real run persists the header right after usage is
// known so items can reference it; a dry run assigns the draft identity last.
func (r *generationRun) newMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(stateStart)

	sm.Configure(stateStart).
		Permit(triggerAdvance, stateAccountResolved)

	sm.Configure(stateAccountResolved).
		OnEntry(r.resolveAccount).
		Permit(triggerAdvance, stateUsageFetched)

	sm.Configure(stateUsageFetched).
		OnEntry(r.fetchUsage).
		Permit(triggerAdvance, stateNoInvoiceNeeded, r.nothingToBill).
		Permit(triggerAdvance, stateIdentityAssigned, r.billable, r.persisted).
		Permit(triggerAdvance, stateItemsBuilt, r.billable, r.draft)

	sm.Configure(stateNoInvoiceNeeded).
		OnEntry(r.enter(stateNoInvoiceNeeded))

	sm.Configure(stateIdentityAssigned).
		OnEntry(r.assignIdentity).
		Permit(triggerAdvance, stateItemsBuilt, r.persisted).
		Permit(triggerAdvance, stateDone, r.draft)

	sm.Configure(stateItemsBuilt).
		OnEntry(r.buildItems).
		Permit(triggerAdvance, stateTaxed)

	sm.Configure(stateTaxed).
		OnEntry(r.applyTax).
		Permit(triggerAdvance, stateCredited)

	sm.Configure(stateCredited).
		OnEntry(r.applyCredit).
		Permit(triggerAdvance, stateIdentityAssigned, r.draft).
		Permit(triggerAdvance, stateDone, r.persisted)

	sm.Configure(stateDone).
		OnEntry(r.finish)

	return sm
}

// run advances the machine until it reaches a terminal state. It returns nil when no
// invoice is needed.
func (r *generationRun) run(ctx context.Context) (*invoice.Invoice, error) {
	sm := r.newMachine()

	for {
		state := sm.MustState().(generationState)
		switch state {
		case stateDone:
			return r.invoice, nil
		case stateNoInvoiceNeeded:
			return nil, nil
		}

		if err := sm.FireCtx(ctx, triggerAdvance); err != nil {
			return nil, err
		}
	}
}

// guards

func (r *generationRun) draft(_ context.Context, _ ...any) bool {
	return r.params.DryRun
}

func (r *generationRun) persisted(_ context.Context, _ ...any) bool {
	return !r.params.DryRun
}

func (r *generationRun) billable(_ context.Context, _ ...any) bool {
	for _, agg := range r.rated {
		if agg.IsBillable() {
			return true
		}
	}
	return false
}

func (r *generationRun) nothingToBill(ctx context.Context, args ...any) bool {
	return !r.billable(ctx, args...)
}

// entry actions

func (r *generationRun) enter(state generationState) func(context.Context, ...any) error {
	return func(_ context.Context, _ ...any) error {
		r.visited = append(r.visited, state)
		return nil
	}
}

func (r *generationRun) resolveAccount(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateAccountResolved)

	acct, err := r.svc.AccountForUser(ctx, r.params.UserID)
	if err != nil {
		return err
	}
	r.account = acct
	return nil
}

func (r *generationRun) fetchUsage(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateUsageFetched)

	snapshots, err := r.svc.usage.FindNodeUsageForAccount(ctx, r.params.UserID, r.params.StartDate, r.params.EndDate)
	if err != nil {
		return err
	}
	rated, err := r.svc.usage.RateAccountUsage(ctx, snapshots, r.params.StartDate)
	if err != nil {
		return err
	}
	r.snapshots = snapshots
	r.rated = rated

	if !r.billable(ctx) {
		r.svc.Logger.Debugw("no invoice needed",
			"user_id", r.params.UserID,
			"account_id", r.account.ID,
			"start_date", r.params.StartDate.Format(types.DateLayout),
			"end_date", r.params.EndDate.Format(types.DateLayout),
			"aggregates", len(rated),
		)
		return nil
	}

	inv, err := r.svc.newInvoiceShell(r.account, r.params)
	if err != nil {
		return err
	}
	r.invoice = inv
	return nil
}

func (r *generationRun) assignIdentity(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateIdentityAssigned)

	if r.params.DryRun {
		r.invoice.Identity = invoice.Draft()
		r.invoice.CreatedAt = time.Now().UTC()
		return nil
	}

	r.invoice.NodeUsage = r.snapshots
	if err := r.svc.InvoiceRepo.Create(ctx, r.invoice); err != nil {
		r.svc.Logger.Errorw("failed to create invoice",
			"error", err,
			"account_id", r.invoice.AccountID,
			"start_date", r.invoice.StartDate.Format(types.DateLayout),
		)
		return err
	}
	return nil
}

func (r *generationRun) buildItems(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateItemsBuilt)
	return r.svc.addItems(ctx, r.invoice, buildUsageItems(r.invoice, r.rated, r.svc.invoicingConfig())...)
}

func (r *generationRun) applyTax(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateTaxed)

	items, err := r.svc.tax.ComputeInvoiceTaxItems(ctx, r.invoice)
	if err != nil {
		return err
	}
	return r.svc.addItems(ctx, r.invoice, items...)
}

func (r *generationRun) applyCredit(ctx context.Context, _ ...any) error {
	r.visited = append(r.visited, stateCredited)

	item, err := r.svc.credit.ApplyCredit(ctx, r.invoice, r.params.DryRun)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	return r.svc.addItems(ctx, r.invoice, item)
}

func (r *generationRun) finish(_ context.Context, _ ...any) error {
	r.visited = append(r.visited, stateDone)

	r.invoice.NodeUsage = r.snapshots
	if r.invoice.TotalAmount().IsNegative() {
		return ierr.NewError("invoice total is negative").
			WithHint("Credit applied to an invoice cannot exceed its total").
			WithReportableDetails(map[string]any{
				"account_id": r.invoice.AccountID,
				"total":      r.invoice.TotalAmount().String(),
			}).
			Mark(ierr.ErrDataIntegrity)
	}
	return nil
}
