package service

import (
	"context"

	"github.com/flexprice/invoicer/internal/domain/accounttask"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/samber/lo"
)

// AccountTaskService runs queued per-account invoicing work
type AccountTaskService interface {
	// Enqueue validates and stores a task
	Enqueue(ctx context.Context, task *accounttask.AccountTask) error

	// ProcessNext claims and runs the oldest task. It returns the task, or nil when the
	// queue is empty. A task failing with a transient error is left queued; one that can
	// never succeed (malformed, or failing with a NotFound, Validation, AlreadyExists or
	// DataIntegrity error) is logged and removed so later tasks are not starved.
	ProcessNext(ctx context.Context) (*accounttask.AccountTask, error)
}

type accountTaskService struct {
	ServiceParams
	invoicing InvoicingService
}

func NewAccountTaskService(params ServiceParams, invoicing InvoicingService) AccountTaskService {
	return &accountTaskService{
		ServiceParams: params,
		invoicing:     invoicing,
	}
}

func (s *accountTaskService) Enqueue(ctx context.Context, task *accounttask.AccountTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.AccountTaskRepo.Create(ctx, task); err != nil {
		s.Logger.Errorw("failed to enqueue account task",
			"error", err,
			"account_id", task.AccountID,
			"task_type", task.TaskType,
		)
		return err
	}
	return nil
}

func (s *accountTaskService) ProcessNext(ctx context.Context) (*accounttask.AccountTask, error) {
	var claimed *accounttask.AccountTask

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		task, err := s.AccountTaskRepo.ClaimNext(ctx)
		if task != nil {
			claimed = task
		}
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}

		s.Logger.Debugw("processing account task",
			"task_id", task.ID,
			"account_id", task.AccountID,
			"task_type", task.TaskType,
		)

		if err := task.Validate(); err != nil {
			return err
		}
		if err := s.run(ctx, task); err != nil {
			return err
		}
		return s.AccountTaskRepo.Delete(ctx, task)
	})
	if err == nil {
		return claimed, nil
	}
	if claimed == nil || !isPermanentTaskError(err) {
		if claimed != nil {
			s.Logger.Errorw("account task failed, will retry",
				"error", err,
				"task_id", claimed.ID,
				"account_id", claimed.AccountID,
				"task_type", claimed.TaskType,
			)
		}
		return nil, err
	}
	return claimed, s.discard(ctx, claimed, err)
}

func (s *accountTaskService) run(ctx context.Context, task *accounttask.AccountTask) error {
	switch task.TaskType {
	case types.AccountTaskTypeGenerateInvoice:
		return s.generateInvoice(ctx, task)
	case types.AccountTaskTypeDeliverInvoice:
		return s.deliverInvoice(ctx, task)
	default:
		return task.TaskType.Validate()
	}
}

// discard removes a task whose work was rolled back and cannot succeed on retry
func (s *accountTaskService) discard(ctx context.Context, task *accounttask.AccountTask, cause error) error {
	s.Logger.Errorw("discarding account task that cannot be processed",
		"error", cause,
		"task_id", task.ID,
		"account_id", task.AccountID,
		"task_type", task.TaskType,
	)
	s.Sentry.CaptureAccountException(cause, task.AccountID, map[string]string{
		"task_id":   task.ID.String(),
		"task_type": task.TaskType.String(),
		"operation": "process_account_task",
	})

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.AccountTaskRepo.Delete(ctx, task)
	})
	// another worker already removed it
	if ierr.IsNotFound(err) {
		return nil
	}
	return err
}

// isPermanentTaskError reports whether retrying the task can only fail the same way
func isPermanentTaskError(err error) bool {
	return ierr.IsNotFound(err) ||
		ierr.IsValidation(err) ||
		ierr.IsAlreadyExists(err) ||
		ierr.IsDataIntegrity(err)
}

func (s *accountTaskService) generateInvoice(ctx context.Context, task *accounttask.AccountTask) error {
	acct, err := s.AccountRepo.Get(ctx, task.AccountID)
	if err != nil {
		return err
	}

	inv, err := s.invoicing.GenerateInvoice(ctx, GenerateInvoiceParams{
		UserID:    acct.UserID,
		StartDate: *task.Extra.StartDate,
		EndDate:   *task.Extra.EndDate,
	})
	if err != nil {
		return err
	}
	if inv == nil {
		s.Logger.Infow("no invoice needed for account task",
			"task_id", task.ID,
			"account_id", task.AccountID,
		)
		return nil
	}

	return s.Enqueue(ctx, &accounttask.AccountTask{
		AccountID: task.AccountID,
		TaskType:  types.AccountTaskTypeDeliverInvoice,
		Extra: accounttask.Extra{
			InvoiceID: lo.ToPtr(inv.ID()),
		},
	})
}

func (s *accountTaskService) deliverInvoice(ctx context.Context, task *accounttask.AccountTask) error {
	acct, err := s.AccountRepo.Get(ctx, task.AccountID)
	if err != nil {
		return err
	}

	inv, err := s.InvoiceRepo.Get(ctx, *task.Extra.InvoiceID)
	if err != nil {
		return err
	}
	if inv.AccountID != acct.ID {
		return ierr.NewError("invoice does not belong to task account").
			WithHint("The invoice to deliver belongs to another account").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.Identity.String(),
				"account_id": acct.ID,
			}).
			Mark(ierr.ErrDataIntegrity)
	}

	if s.Deliverer == nil {
		return ierr.NewError("no invoice deliverer configured").
			Mark(ierr.ErrSystem)
	}
	return s.Deliverer.DeliverInvoice(ctx, inv, acct)
}
