package invoice

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceItem is one charge, tax or credit on an invoice. Items are immutable once created.
type InvoiceItem struct {
	ID        uuid.UUID             `json:"id"`
	InvoiceID uuid.UUID             `json:"invoice_id"`
	ItemType  types.InvoiceItemType `json:"item_type"`
	Key       string                `json:"key"`
	Quantity  decimal.Decimal       `json:"quantity"`
	Amount    decimal.Decimal       `json:"amount"`
	Metadata  *ItemMetadata         `json:"metadata,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

// ItemMetadata carries the provenance of an item for display. Every field is optional.
type ItemMetadata struct {
	UsageInfo            *UsageInfo       `json:"usage_info,omitempty"`
	TierBreakdown        []usage.TierCost `json:"tier_breakdown,omitempty"`
	NodeID               *int64           `json:"node_id,omitempty"`
	AvailableCreditAfter *decimal.Decimal `json:"available_credit_after,omitempty"`
}

// UsageInfo records the raw usage an item was rated from
type UsageInfo struct {
	UnitType string          `json:"unit_type"`
	Amount   decimal.Decimal `json:"amount"`
	Cost     decimal.Decimal `json:"cost"`
}

// IsEmpty reports whether no metadata field is set
func (m *ItemMetadata) IsEmpty() bool {
	return m == nil || (m.UsageInfo == nil && len(m.TierBreakdown) == 0 && m.NodeID == nil && m.AvailableCreditAfter == nil)
}

// IsTax reports whether the item is a tax charge
func (i *InvoiceItem) IsTax() bool {
	return i.ItemType == types.InvoiceItemTypeTax
}

// Validate checks the item type and the sign of its amount
func (i *InvoiceItem) Validate() error {
	if err := i.ItemType.Validate(); err != nil {
		return err
	}

	if i.Key == "" {
		return ierr.NewError("invoice item key is required").
			WithHint("Invoice items must have a key").
			Mark(ierr.ErrValidation)
	}

	if i.ItemType == types.InvoiceItemTypeCredit {
		if i.Amount.IsPositive() {
			return ierr.NewError("credit item amount must not be positive").
				WithHint("Credit items reduce the invoice total").
				WithReportableDetails(map[string]any{
					"key":    i.Key,
					"amount": i.Amount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		return nil
	}

	if i.Amount.IsNegative() {
		return ierr.NewError("invoice item amount must not be negative").
			WithHintf("%s items cannot have a negative amount", i.ItemType).
			WithReportableDetails(map[string]any{
				"key":    i.Key,
				"amount": i.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsSameAs compares the business fields of two items, ignoring ids and creation time
func (i *InvoiceItem) IsSameAs(o *InvoiceItem) bool {
	if i == nil || o == nil {
		return i == o
	}
	return i.ItemType == o.ItemType &&
		i.Key == o.Key &&
		i.Quantity.Equal(o.Quantity) &&
		i.Amount.Equal(o.Amount)
}
