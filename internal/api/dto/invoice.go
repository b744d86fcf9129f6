package dto

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/flexprice/invoicer/internal/validator"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest names the period of a single account invoice
type GenerateInvoiceRequest struct {
	// StartDate is the first day of the period, YYYY-MM-DD
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	// EndDate is the day after the period, YYYY-MM-DD
	EndDate string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (r *GenerateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	start, end, err := r.Period()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return ierr.NewError("end_date must be after start_date").
			WithHint("The invoice period must end after it starts").
			WithReportableDetails(map[string]any{
				"start_date": r.StartDate,
				"end_date":   r.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Period parses the start and end dates
func (r *GenerateInvoiceRequest) Period() (time.Time, time.Time, error) {
	start, err := types.ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithHint("start_date must be formatted as YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	end, err := types.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, ierr.WithError(err).
			WithHint("end_date must be formatted as YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	return start, end, nil
}

// InvoiceResponse is an invoice plus its computed total
type InvoiceResponse struct {
	*invoice.Invoice
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{
		Invoice:     inv,
		TotalAmount: inv.TotalAmount(),
	}
}

// GenerateInvoiceResponse reports the outcome of a single generation. Invoice is nil
// when the period had nothing to bill.
type GenerateInvoiceResponse struct {
	Generated bool             `json:"generated"`
	Invoice   *InvoiceResponse `json:"invoice,omitempty"`
}

// ListInvoicesResponse is a page of invoice headers
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// GenerateInvoicesRequest starts a batch run over all accounts
type GenerateInvoicesRequest struct {
	// EndDate bounds the run, YYYY-MM-DD; the first of the current month when empty
	EndDate string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	DryRun  bool   `json:"dry_run"`
}

func (r *GenerateInvoicesRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// GetEndDate returns the parsed end date, defaulting to the start of the current month
func (r *GenerateInvoicesRequest) GetEndDate() (time.Time, error) {
	if r.EndDate == "" {
		return types.StartOfMonth(time.Now().UTC()), nil
	}
	end, err := types.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHint("end_date must be formatted as YYYY-MM-DD").
			Mark(ierr.ErrValidation)
	}
	return end, nil
}

// GenerateInvoicesResponse summarises a batch run
type GenerateInvoicesResponse struct {
	Accounts  int      `json:"accounts"`
	Generated int      `json:"generated"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
