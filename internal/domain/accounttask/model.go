package accounttask

import (
	"time"

	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
)

// AccountTask is a unit of deferred invoicing work for one account
type AccountTask struct {
	ID        uuid.UUID             `json:"id"`
	AccountID int64                 `json:"account_id"`
	TaskType  types.AccountTaskType `json:"task_type"`
	Extra     Extra                 `json:"extra"`
	CreatedAt time.Time             `json:"created_at"`
}

// Extra holds the task arguments
type Extra struct {
	// StartDate and EndDate bound the period of a generate task
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	// InvoiceID names the invoice of a deliver task
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
}

// Validate checks the task type and that its arguments are present
func (t *AccountTask) Validate() error {
	if err := t.TaskType.Validate(); err != nil {
		return err
	}

	switch t.TaskType {
	case types.AccountTaskTypeGenerateInvoice:
		if t.Extra.StartDate == nil || t.Extra.EndDate == nil {
			return ierr.NewError("generate invoice task requires a period").
				WithHint("Provide the start and end date of the invoice period").
				Mark(ierr.ErrValidation)
		}
		if t.Extra.EndDate.Before(*t.Extra.StartDate) {
			return ierr.NewError("generate invoice task period ends before it starts").
				WithHint("The end date must not be before the start date").
				Mark(ierr.ErrValidation)
		}
	case types.AccountTaskTypeDeliverInvoice:
		if t.Extra.InvoiceID == nil {
			return ierr.NewError("deliver invoice task requires an invoice id").
				WithHint("Provide the id of the invoice to deliver").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
