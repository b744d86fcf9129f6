package invoice

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Invoice is the bill of one account for the calendar dates [StartDate, EndDate).
// Apart from items appended while it is generated, an invoice never changes.
type Invoice struct {
	Identity     Identity                  `json:"id"`
	UserID       int64                     `json:"user_id"`
	AccountID    int64                     `json:"account_id"`
	Address      *account.Address          `json:"address,omitempty"`
	CurrencyCode string                    `json:"currency_code"`
	StartDate    time.Time                 `json:"start_date"`
	EndDate      time.Time                 `json:"end_date"`
	CreatedAt    time.Time                 `json:"created_at"`
	Items        []*InvoiceItem            `json:"items"`
	NodeUsage    []*usage.RawUsageSnapshot `json:"node_usage,omitempty"`
}

// ID returns the durable id, or DraftID for drafts
func (inv *Invoice) ID() uuid.UUID {
	return inv.Identity.ID()
}

// TimeZone returns the zone of the address snapshot
func (inv *Invoice) TimeZone() (*time.Location, error) {
	if inv.Address == nil {
		return nil, ierr.NewError("invoice has no address").
			WithHint("The invoice address is required to resolve its time zone").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.Identity.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return inv.Address.TimeZone()
}

// TotalAmount is the exact sum of all item amounts
func (inv *Invoice) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// NonTaxItems returns the items tax can apply to
func (inv *Invoice) NonTaxItems() []*InvoiceItem {
	return lo.Filter(inv.Items, func(item *InvoiceItem, _ int) bool {
		return !item.IsTax()
	})
}

// ItemsOfType returns the items of one type in invoice order
func (inv *Invoice) ItemsOfType(t types.InvoiceItemType) []*InvoiceItem {
	return lo.Filter(inv.Items, func(item *InvoiceItem, _ int) bool {
		return item.ItemType == t
	})
}

// AddItems appends items, skipping any whose id is already present
func (inv *Invoice) AddItems(items ...*InvoiceItem) {
	seen := make(map[uuid.UUID]struct{}, len(inv.Items))
	for _, item := range inv.Items {
		seen[item.ID] = struct{}{}
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		inv.Items = append(inv.Items, item)
	}
}

// Validate checks the period and every item
func (inv *Invoice) Validate() error {
	if inv.EndDate.Before(inv.StartDate) {
		return ierr.NewError("invoice end date before start date").
			WithHint("The invoice period must not end before it starts").
			WithReportableDetails(map[string]any{
				"start_date": inv.StartDate.Format(types.DateLayout),
				"end_date":   inv.EndDate.Format(types.DateLayout),
			}).
			Mark(ierr.ErrValidation)
	}
	if inv.CurrencyCode == "" {
		return ierr.NewError("invoice currency is required").
			WithHint("The invoice must have a currency").
			Mark(ierr.ErrValidation)
	}
	for _, item := range inv.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsSameAs compares the business content of two invoices: account, period, currency,
// address and items in order. Identity and creation time are ignored.
func (inv *Invoice) IsSameAs(o *Invoice) bool {
	if inv == nil || o == nil {
		return inv == o
	}
	if inv.UserID != o.UserID ||
		inv.AccountID != o.AccountID ||
		inv.CurrencyCode != o.CurrencyCode ||
		!inv.StartDate.Equal(o.StartDate) ||
		!inv.EndDate.Equal(o.EndDate) ||
		!inv.Address.IsSameAs(o.Address) ||
		len(inv.Items) != len(o.Items) {
		return false
	}
	for i := range inv.Items {
		if !inv.Items[i].IsSameAs(o.Items[i]) {
			return false
		}
	}
	return true
}
