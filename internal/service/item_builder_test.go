package service

import (
	"testing"
	"time"

	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	"github.com/flexprice/invoicer/internal/testutil"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUsageItems(t *testing.T) {
	cfg := config.DefaultInvoicingConfig()
	inv := &invoice.Invoice{Identity: invoice.Persisted(types.NewEntityID())}

	schedule := testutil.Schedule2020()
	rated := []*usage.RatedUsage{
		usage.Rate(nil, usage.Counts{DatumPropertiesIn: 1500000, DatumDaysStored: 1000}, schedule),
	}

	items := buildUsageItems(inv, rated, cfg)
	require.Len(t, items, 2)

	props := items[0]
	assert.Equal(t, inv.ID(), props.InvoiceID)
	assert.Equal(t, types.InvoiceItemTypeUsage, props.ItemType)
	assert.Equal(t, cfg.PropertiesInKey, props.Key)
	assert.True(t, decimal.NewFromInt(1500000).Equal(props.Quantity))
	assert.True(t, decimal.RequireFromString("5.95").Equal(props.Amount), props.Amount.String())
	require.NotNil(t, props.Metadata.UsageInfo)
	assert.Equal(t, types.UsageResourcePropertiesIn.String(), props.Metadata.UsageInfo.UnitType)

	gotTiers := lo.Map(props.Metadata.TierBreakdown, func(tc usage.TierCost, _ int) int64 { return tc.Quantity })
	if diff := cmp.Diff([]int64{50000, 350000, 600000, 500000}, gotTiers); diff != "" {
		t.Errorf("tier quantities mismatch (-want +got):\n%s", diff)
	}

	// 1000 * 0.0000004 rounds to nothing on the invoice but the cost is kept
	stored := items[1]
	assert.Equal(t, cfg.DaysStoredKey, stored.Key)
	assert.True(t, stored.Amount.IsZero())
	assert.True(t, decimal.RequireFromString("0.0004").Equal(stored.Metadata.UsageInfo.Cost))
}

func TestBuildUsageItemsSkipsFreeUsage(t *testing.T) {
	cfg := config.DefaultInvoicingConfig()
	inv := &invoice.Invoice{Identity: invoice.Draft()}

	free := testutil.FlatSchedule(types.NewDate(2020, time.January, 1), "0", "0", "0")
	rated := []*usage.RatedUsage{
		usage.Rate(nil, usage.Counts{DatumOut: 500}, free),
		usage.Rate(lo.ToPtr(int64(7)), usage.Counts{DatumOut: 500}, testutil.FlatSchedule(types.NewDate(2020, time.January, 1), "0", "0.01", "0")),
	}

	items := buildUsageItems(inv, rated, cfg)
	require.Len(t, items, 1)
	assert.Equal(t, invoice.DraftID, items[0].InvoiceID)
	assert.Equal(t, cfg.DatumOutKey, items[0].Key)
	assert.True(t, decimal.NewFromInt(5).Equal(items[0].Amount))
	assert.Equal(t, int64(7), *items[0].Metadata.NodeID)
}

func TestUsageItemKey(t *testing.T) {
	cfg := config.DefaultInvoicingConfig()
	cfg.DatumOutKey = "egress"

	assert.Equal(t, "egress", usageItemKey(cfg, types.UsageResourceDatumOut))
	assert.Equal(t, cfg.PropertiesInKey, usageItemKey(cfg, types.UsageResourcePropertiesIn))
	assert.Equal(t, cfg.DaysStoredKey, usageItemKey(cfg, types.UsageResourceDaysStored))
}
