package usage

import (
	"fmt"

	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// TierCost is the share of a quantity that fell into one tier and what it cost.
// Cost keeps full precision.
type TierCost struct {
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Cost     decimal.Decimal `json:"cost"`
}

// TierName returns the display name of the 1-based tier number n
func TierName(n int) string {
	return fmt.Sprintf("Tier %d", n)
}

// Allocation is the result of spreading a quantity across a tier schedule
type Allocation struct {
	Total decimal.Decimal
	Tiers []TierCost
}

// Allocate spreads quantity across tiers progressively: lower tiers fill first, tier i
// holds at most tiers[i+1].Quantity - tiers[i].Quantity units and the last tier is
// unbounded. Only tiers that consumed units appear in the breakdown. The total is the
// unrounded sum of the tier costs.
func Allocate(quantity int64, tiers []Tier, resource types.UsageResource) Allocation {
	result := Allocation{Total: decimal.Zero}
	if quantity <= 0 || len(tiers) == 0 {
		return result
	}

	remaining := quantity
	for i, tier := range tiers {
		if remaining <= 0 {
			break
		}

		consumed := remaining
		if i+1 < len(tiers) {
			capacity := tiers[i+1].Quantity - tier.Quantity
			if capacity < consumed {
				consumed = capacity
			}
		}
		if consumed <= 0 {
			continue
		}

		cost := decimal.NewFromInt(consumed).Mul(tier.UnitCost(resource))
		result.Tiers = append(result.Tiers, TierCost{
			Name:     TierName(i + 1),
			Quantity: consumed,
			Cost:     cost,
		})
		result.Total = result.Total.Add(cost)
		remaining -= consumed
	}

	return result
}
