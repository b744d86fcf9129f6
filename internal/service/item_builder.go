package service

import (
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// usageItemKey maps a resource to its configured invoice item key
func usageItemKey(cfg config.InvoicingConfig, resource types.UsageResource) string {
	switch resource {
	case types.UsageResourcePropertiesIn:
		return cfg.PropertiesInKey
	case types.UsageResourceDatumOut:
		return cfg.DatumOutKey
	case types.UsageResourceDaysStored:
		return cfg.DaysStoredKey
	default:
		return resource.String()
	}
}

// buildUsageItems emits one usage item per resource with a non-zero quantity, in
// canonical resource order, for every aggregate that costs something. Amounts are
// rounded to the invoice scale; metadata keeps the unrounded cost and tier split.
func buildUsageItems(inv *invoice.Invoice, rated []*usage.RatedUsage, cfg config.InvoicingConfig) []*invoice.InvoiceItem {
	var items []*invoice.InvoiceItem

	for _, agg := range rated {
		if !agg.IsBillable() {
			continue
		}

		for _, resource := range types.UsageResources {
			quantity := agg.Quantity(resource)
			if quantity == 0 {
				continue
			}

			cost := agg.Cost(resource)
			items = append(items, &invoice.InvoiceItem{
				ID:        types.NewEntityID(),
				InvoiceID: inv.ID(),
				ItemType:  types.InvoiceItemTypeUsage,
				Key:       usageItemKey(cfg, resource),
				Quantity:  decimal.NewFromInt(quantity),
				Amount:    types.RoundAmount(cost),
				Metadata: &invoice.ItemMetadata{
					UsageInfo: &invoice.UsageInfo{
						UnitType: resource.String(),
						Amount:   decimal.NewFromInt(quantity),
						Cost:     cost,
					},
					TierBreakdown: agg.TierBreakdown(resource),
					NodeID:        agg.NodeID,
				},
			})
		}
	}

	return items
}
