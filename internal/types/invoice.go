package types

import (
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/samber/lo"
)

// InvoiceItemType is the kind of charge an invoice item represents
type InvoiceItemType string

const (
	InvoiceItemTypeUsage  InvoiceItemType = "usage"
	InvoiceItemTypeFixed  InvoiceItemType = "fixed"
	InvoiceItemTypeTax    InvoiceItemType = "tax"
	InvoiceItemTypeCredit InvoiceItemType = "credit"
)

func (t InvoiceItemType) String() string {
	return string(t)
}

func (t InvoiceItemType) Validate() error {
	allowed := []InvoiceItemType{
		InvoiceItemTypeUsage,
		InvoiceItemTypeFixed,
		InvoiceItemTypeTax,
		InvoiceItemTypeCredit,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid invoice item type").
			WithHint("Please provide a valid invoice item type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceSortField lists the columns invoices can be sorted by
type InvoiceSortField string

const (
	InvoiceSortByCreatedAt InvoiceSortField = "created_at"
	InvoiceSortByStartDate InvoiceSortField = "start_date"
	InvoiceSortByEndDate   InvoiceSortField = "end_date"
)

func (f InvoiceSortField) Validate() error {
	allowed := []InvoiceSortField{
		InvoiceSortByCreatedAt,
		InvoiceSortByStartDate,
		InvoiceSortByEndDate,
	}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid invoice sort field").
			WithHint("Invoices can be sorted by created_at, start_date or end_date").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
