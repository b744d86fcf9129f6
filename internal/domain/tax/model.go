package tax

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TaxCode is a tax rate that applies to items with a given key in one zone, for the
// half-open validity interval [ValidFrom, ValidTo).
type TaxCode struct {
	ID        int64           `json:"id"`
	Zone      string          `json:"zone"`
	ItemKey   string          `json:"item_key"`
	Code      string          `json:"code"`
	Rate      decimal.Decimal `json:"rate"`
	ValidFrom time.Time       `json:"valid_from"`
	ValidTo   *time.Time      `json:"valid_to,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AppliesTo reports whether the code covers an item key, ignoring case
func (c *TaxCode) AppliesTo(itemKey string) bool {
	return strings.EqualFold(c.ItemKey, itemKey)
}

// IsValidAt reports whether the instant falls in the validity interval
func (c *TaxCode) IsValidAt(at time.Time) bool {
	if at.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || at.Before(*c.ValidTo)
}

// ZoneFor builds the tax zone of a country and, when given, its state or province
func ZoneFor(country, stateOrProvince string) string {
	if stateOrProvince == "" {
		return country
	}
	return country + "." + stateOrProvince
}

// Filter selects tax codes
type Filter struct {
	// Zones matches any of the listed zones
	Zones []string
	// ItemKey matches case-insensitively when set
	ItemKey string
	// Code matches exactly when set
	Code string
	// Date selects codes valid at that instant when set
	Date *time.Time
}

// Matches applies the filter to a single code
func (f *Filter) Matches(c *TaxCode) bool {
	if f == nil {
		return true
	}
	if len(f.Zones) > 0 {
		found := false
		for _, z := range f.Zones {
			if z == c.Zone {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ItemKey != "" && !c.AppliesTo(f.ItemKey) {
		return false
	}
	if f.Code != "" && f.Code != c.Code {
		return false
	}
	if f.Date != nil && !c.IsValidAt(*f.Date) {
		return false
	}
	return true
}
