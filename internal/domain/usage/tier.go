package usage

import (
	"sort"
	"time"

	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Tier is a quantity band of the usage schedule. Quantity is the inclusive lower bound
// of the band; the band ends where the next tier starts.
type Tier struct {
	Quantity              int64           `db:"min_quantity" json:"quantity"`
	DatumPropertiesInCost decimal.Decimal `db:"cost_properties_in" json:"datum_properties_in_cost"`
	DatumOutCost          decimal.Decimal `db:"cost_datum_out" json:"datum_out_cost"`
	DatumDaysStoredCost   decimal.Decimal `db:"cost_datum_days_stored" json:"datum_days_stored_cost"`
}

// UnitCost returns the per-unit price of the tier for a resource
func (t Tier) UnitCost(resource types.UsageResource) decimal.Decimal {
	switch resource {
	case types.UsageResourcePropertiesIn:
		return t.DatumPropertiesInCost
	case types.UsageResourceDatumOut:
		return t.DatumOutCost
	case types.UsageResourceDaysStored:
		return t.DatumDaysStoredCost
	default:
		return decimal.Zero
	}
}

// EffectiveTierSchedule is an ordered tier list plus the date it took effect.
type EffectiveTierSchedule struct {
	EffectiveDate time.Time `json:"effective_date"`
	Tiers         []Tier    `json:"tiers"`
}

// NewEffectiveTierSchedule sorts the tiers by threshold and validates the result
func NewEffectiveTierSchedule(effectiveDate time.Time, tiers []Tier) (*EffectiveTierSchedule, error) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Quantity < sorted[j].Quantity
	})

	s := &EffectiveTierSchedule{
		EffectiveDate: types.DateOf(effectiveDate),
		Tiers:         sorted,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that thresholds are non-negative, strictly ascending and that the
// first tier starts at zero so every unit is priced by some tier
func (s *EffectiveTierSchedule) Validate() error {
	for i, t := range s.Tiers {
		if t.Quantity < 0 {
			return ierr.NewError("tier threshold cannot be negative").
				WithHint("Usage tier thresholds must be zero or greater").
				WithReportableDetails(map[string]any{
					"tier":      i + 1,
					"threshold": t.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
		if i == 0 && t.Quantity != 0 {
			return ierr.NewError("first tier must start at zero").
				WithHint("The lowest usage tier threshold must be 0").
				WithReportableDetails(map[string]any{
					"threshold": t.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
		if i > 0 && t.Quantity <= s.Tiers[i-1].Quantity {
			return ierr.NewError("tier thresholds must be strictly ascending").
				WithHint("Usage tiers must be ordered by ascending threshold without duplicates").
				WithReportableDetails(map[string]any{
					"tier":      i + 1,
					"threshold": t.Quantity,
					"previous":  s.Tiers[i-1].Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// IsEmpty reports whether the schedule prices nothing
func (s *EffectiveTierSchedule) IsEmpty() bool {
	return s == nil || len(s.Tiers) == 0
}

// ScheduleFor picks the schedule with the latest effective date on or before date.
// It returns nil when every schedule starts after date.
func ScheduleFor(schedules []*EffectiveTierSchedule, date time.Time) *EffectiveTierSchedule {
	day := types.DateOf(date)
	var found *EffectiveTierSchedule
	for _, s := range schedules {
		if s == nil || s.EffectiveDate.After(day) {
			continue
		}
		if found == nil || s.EffectiveDate.After(found.EffectiveDate) {
			found = s
		}
	}
	return found
}
