package usage

import (
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Counts holds the three raw usage counters of a billing period
type Counts struct {
	DatumPropertiesIn int64 `json:"datum_properties_in"`
	DatumOut          int64 `json:"datum_out"`
	DatumDaysStored   int64 `json:"datum_days_stored"`
}

// Quantity returns the counter of one resource
func (c Counts) Quantity(resource types.UsageResource) int64 {
	switch resource {
	case types.UsageResourcePropertiesIn:
		return c.DatumPropertiesIn
	case types.UsageResourceDatumOut:
		return c.DatumOut
	case types.UsageResourceDaysStored:
		return c.DatumDaysStored
	default:
		return 0
	}
}

// IsZero reports whether nothing was used
func (c Counts) IsZero() bool {
	return c.DatumPropertiesIn == 0 && c.DatumOut == 0 && c.DatumDaysStored == 0
}

// Add returns the element-wise sum of both counters
func (c Counts) Add(o Counts) Counts {
	return Counts{
		DatumPropertiesIn: c.DatumPropertiesIn + o.DatumPropertiesIn,
		DatumOut:          c.DatumOut + o.DatumOut,
		DatumDaysStored:   c.DatumDaysStored + o.DatumDaysStored,
	}
}

// RawUsageSnapshot is the unrated usage of one node over a billing period, kept on
// generated invoices for audit.
type RawUsageSnapshot struct {
	NodeID int64 `json:"node_id"`
	Counts
}

// SumSnapshots totals node snapshots into account level counters
func SumSnapshots(snapshots []*RawUsageSnapshot) Counts {
	var total Counts
	for _, s := range snapshots {
		if s == nil {
			continue
		}
		total = total.Add(s.Counts)
	}
	return total
}

// RatedUsage is the usage of a node, or of a whole account when NodeID is nil, priced
// against a tier schedule.
type RatedUsage struct {
	NodeID *int64 `json:"node_id,omitempty"`
	Counts

	DatumPropertiesInCost decimal.Decimal `json:"datum_properties_in_cost"`
	DatumOutCost          decimal.Decimal `json:"datum_out_cost"`
	DatumDaysStoredCost   decimal.Decimal `json:"datum_days_stored_cost"`
	TotalCost             decimal.Decimal `json:"total_cost"`

	Tiers map[types.UsageResource][]TierCost `json:"tiers,omitempty"`
}

// Rate prices each resource against the shared tier boundaries of schedule, using that
// resource's own unit cost column. An empty schedule yields zero cost.
func Rate(nodeID *int64, counts Counts, schedule *EffectiveTierSchedule) *RatedUsage {
	var tiers []Tier
	if !schedule.IsEmpty() {
		tiers = schedule.Tiers
	}

	rated := &RatedUsage{
		NodeID:    nodeID,
		Counts:    counts,
		TotalCost: decimal.Zero,
		Tiers:     make(map[types.UsageResource][]TierCost),
	}

	for _, resource := range types.UsageResources {
		alloc := Allocate(counts.Quantity(resource), tiers, resource)
		switch resource {
		case types.UsageResourcePropertiesIn:
			rated.DatumPropertiesInCost = alloc.Total
		case types.UsageResourceDatumOut:
			rated.DatumOutCost = alloc.Total
		case types.UsageResourceDaysStored:
			rated.DatumDaysStoredCost = alloc.Total
		}
		if len(alloc.Tiers) > 0 {
			rated.Tiers[resource] = alloc.Tiers
		}
		rated.TotalCost = rated.TotalCost.Add(alloc.Total)
	}

	return rated
}

// Cost returns the computed cost of one resource
func (u *RatedUsage) Cost(resource types.UsageResource) decimal.Decimal {
	switch resource {
	case types.UsageResourcePropertiesIn:
		return u.DatumPropertiesInCost
	case types.UsageResourceDatumOut:
		return u.DatumOutCost
	case types.UsageResourceDaysStored:
		return u.DatumDaysStoredCost
	default:
		return decimal.Zero
	}
}

// TierBreakdown returns the per tier allocation of one resource
func (u *RatedUsage) TierBreakdown(resource types.UsageResource) []TierCost {
	if u.Tiers == nil {
		return nil
	}
	return u.Tiers[resource]
}

// IsBillable reports whether the usage costs anything. Usage can be non-zero and still
// free, e.g. inside a zero priced tier.
func (u *RatedUsage) IsBillable() bool {
	return u != nil && u.TotalCost.IsPositive()
}
