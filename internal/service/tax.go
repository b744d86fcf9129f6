package service

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/tax"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// TaxResolver decides which tax codes can apply to an invoice
type TaxResolver interface {
	TaxCodeFilterForInvoice(inv *invoice.Invoice) (*tax.Filter, error)
}

// DefaultTaxResolver selects codes by the zones of the invoice address, valid at the
// start of the invoice period in the address time zone.
type DefaultTaxResolver struct{}

func (DefaultTaxResolver) TaxCodeFilterForInvoice(inv *invoice.Invoice) (*tax.Filter, error) {
	if inv == nil || inv.Address == nil || strings.TrimSpace(inv.Address.Country) == "" {
		return nil, ierr.NewError("invoice address has no country").
			WithHint("A country is required on the billing address to compute tax").
			Mark(ierr.ErrValidation)
	}

	loc, err := inv.TimeZone()
	if err != nil {
		return nil, err
	}

	country := inv.Address.Country
	zones := []string{country}
	if state := strings.TrimSpace(inv.Address.StateOrProvince); state != "" {
		zones = append(zones, tax.ZoneFor(country, state))
	}

	day := inv.StartDate
	if day.IsZero() {
		day = time.Now().In(loc)
	}
	effective := types.AtStartOfDay(day, loc).UTC()

	return &tax.Filter{
		Zones: zones,
		Date:  &effective,
	}, nil
}

// TaxCalculator derives tax items from the non-tax items of an invoice
type TaxCalculator struct {
	repo     tax.Repository
	resolver TaxResolver
	logger   *logger.Logger
}

// NewTaxCalculator returns a calculator; a nil resolver means DefaultTaxResolver
func NewTaxCalculator(repo tax.Repository, resolver TaxResolver, logger *logger.Logger) *TaxCalculator {
	if resolver == nil {
		resolver = DefaultTaxResolver{}
	}
	return &TaxCalculator{repo: repo, resolver: resolver, logger: logger}
}

// ComputeInvoiceTaxItems returns one tax item per code that matched at least one item,
// in the order codes first matched. Existing tax items are ignored, so repeated calls
// on the same invoice give the same result.
func (c *TaxCalculator) ComputeInvoiceTaxItems(ctx context.Context, inv *invoice.Invoice) ([]*invoice.InvoiceItem, error) {
	filter, err := c.resolver.TaxCodeFilterForInvoice(inv)
	if err != nil {
		return nil, err
	}

	codes, err := c.repo.Find(ctx, filter)
	if err != nil {
		c.logger.Errorw("failed to fetch tax codes",
			"error", err,
			"invoice_id", inv.Identity.String(),
			"zones", filter.Zones,
		)
		return nil, err
	}
	if len(codes) == 0 {
		return nil, nil
	}

	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, item := range inv.NonTaxItems() {
		for _, code := range codes {
			if !code.AppliesTo(item.Key) {
				continue
			}
			total, seen := totals[code.Code]
			if !seen {
				order = append(order, code.Code)
			}
			totals[code.Code] = total.Add(code.Rate.Mul(item.Amount))
		}
	}

	items := make([]*invoice.InvoiceItem, 0, len(order))
	for _, code := range order {
		amount := types.RoundAmount(totals[code])
		if amount.IsZero() {
			continue
		}
		items = append(items, &invoice.InvoiceItem{
			ID:        types.NewEntityID(),
			InvoiceID: inv.ID(),
			ItemType:  types.InvoiceItemTypeTax,
			Key:       code,
			Quantity:  decimal.NewFromInt(1),
			Amount:    amount,
		})
	}
	return items, nil
}
