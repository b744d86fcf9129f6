package types

import (
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/samber/lo"
)

// AccountTaskType is the work an account task asks for
type AccountTaskType string

const (
	AccountTaskTypeGenerateInvoice AccountTaskType = "generate_invoice"
	AccountTaskTypeDeliverInvoice  AccountTaskType = "deliver_invoice"
)

func (t AccountTaskType) String() string {
	return string(t)
}

func (t AccountTaskType) Validate() error {
	allowed := []AccountTaskType{
		AccountTaskTypeGenerateInvoice,
		AccountTaskTypeDeliverInvoice,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid account task type").
			WithHint("Please provide a valid account task type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
