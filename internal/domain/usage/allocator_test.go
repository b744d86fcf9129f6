package usage

import (
	"testing"
	"time"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func schedule2020(t *testing.T) *EffectiveTierSchedule {
	t.Helper()
	s, err := NewEffectiveTierSchedule(types.NewDate(2020, time.June, 1), []Tier{
		{Quantity: 0, DatumPropertiesInCost: d("0.000009"), DatumOutCost: d("0.000002"), DatumDaysStoredCost: d("0.0000004")},
		{Quantity: 50000, DatumPropertiesInCost: d("0.000006"), DatumOutCost: d("0.000001"), DatumDaysStoredCost: d("0.0000002")},
		{Quantity: 400000, DatumPropertiesInCost: d("0.000004"), DatumOutCost: d("0.0000005"), DatumDaysStoredCost: d("0.00000005")},
		{Quantity: 1000000, DatumPropertiesInCost: d("0.000002"), DatumOutCost: d("0.0000002"), DatumDaysStoredCost: d("0.000000006")},
	})
	require.NoError(t, err)
	return s
}

func TestAllocate(t *testing.T) {
	tiers := schedule2020(t).Tiers

	tests := []struct {
		name      string
		quantity  int64
		resource  types.UsageResource
		wantTotal string
		wantTiers []TierCost
	}{
		{
			name:      "zero_quantity",
			quantity:  0,
			resource:  types.UsageResourcePropertiesIn,
			wantTotal: "0",
		},
		{
			name:      "negative_quantity_treated_as_zero",
			quantity:  -10,
			resource:  types.UsageResourcePropertiesIn,
			wantTotal: "0",
		},
		{
			name:      "within_first_tier",
			quantity:  1000,
			resource:  types.UsageResourcePropertiesIn,
			wantTotal: "0.009",
			wantTiers: []TierCost{{Name: "Tier 1", Quantity: 1000, Cost: d("0.009")}},
		},
		{
			name:      "exactly_first_tier_capacity",
			quantity:  50000,
			resource:  types.UsageResourceDatumOut,
			wantTotal: "0.1",
			wantTiers: []TierCost{{Name: "Tier 1", Quantity: 50000, Cost: d("0.1")}},
		},
		{
			name:      "worked_example_properties_in",
			quantity:  1500000,
			resource:  types.UsageResourcePropertiesIn,
			wantTotal: "5.95",
			wantTiers: []TierCost{
				{Name: "Tier 1", Quantity: 50000, Cost: d("0.45")},
				{Name: "Tier 2", Quantity: 350000, Cost: d("2.1")},
				{Name: "Tier 3", Quantity: 600000, Cost: d("2.4")},
				{Name: "Tier 4", Quantity: 500000, Cost: d("1")},
			},
		},
		{
			name:      "days_stored_keeps_full_precision",
			quantity:  60000,
			resource:  types.UsageResourceDaysStored,
			wantTotal: "0.022",
			wantTiers: []TierCost{
				{Name: "Tier 1", Quantity: 50000, Cost: d("0.02")},
				{Name: "Tier 2", Quantity: 10000, Cost: d("0.002")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(tt.quantity, tiers, tt.resource)
			assert.True(t, got.Total.Equal(d(tt.wantTotal)), "total: got %s want %s", got.Total, tt.wantTotal)
			require.Len(t, got.Tiers, len(tt.wantTiers))
			for i, want := range tt.wantTiers {
				assert.Equal(t, want.Name, got.Tiers[i].Name)
				assert.Equal(t, want.Quantity, got.Tiers[i].Quantity)
				assert.True(t, want.Cost.Equal(got.Tiers[i].Cost), "%s cost: got %s want %s", want.Name, got.Tiers[i].Cost, want.Cost)
			}
		})
	}
}

func TestAllocateSingleTier(t *testing.T) {
	tiers := []Tier{{Quantity: 0, DatumPropertiesInCost: d("0.000009")}}
	got := Allocate(2000000, tiers, types.UsageResourcePropertiesIn)
	require.Len(t, got.Tiers, 1)
	assert.Equal(t, int64(2000000), got.Tiers[0].Quantity)
	assert.True(t, got.Total.Equal(d("18")))
}

func TestAllocateEmptySchedule(t *testing.T) {
	got := Allocate(1234, nil, types.UsageResourceDatumOut)
	assert.True(t, got.Total.IsZero())
	assert.Empty(t, got.Tiers)
}

func TestAllocateConservesQuantityAndCost(t *testing.T) {
	tiers := schedule2020(t).Tiers
	quantities := []int64{1, 49999, 50000, 50001, 399999, 400000, 999999, 1000000, 1000001, 987654321}

	for _, resource := range types.UsageResources {
		for _, q := range quantities {
			got := Allocate(q, tiers, resource)

			var sumQty int64
			sumCost := decimal.Zero
			for _, tc := range got.Tiers {
				assert.Positive(t, tc.Quantity)
				sumQty += tc.Quantity
				sumCost = sumCost.Add(tc.Cost)
			}
			assert.Equal(t, q, sumQty, "%s quantity %d", resource, q)
			assert.True(t, sumCost.Equal(got.Total), "%s cost for %d", resource, q)
		}
	}
}

func TestAllocateIsMonotonic(t *testing.T) {
	tiers := schedule2020(t).Tiers
	for _, resource := range types.UsageResources {
		prev := decimal.Zero
		for q := int64(0); q <= 2000000; q += 25000 {
			total := Allocate(q, tiers, resource).Total
			assert.True(t, total.GreaterThanOrEqual(prev), "%s total dropped at %d", resource, q)
			prev = total
		}
	}
}
