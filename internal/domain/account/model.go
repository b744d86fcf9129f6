package account

import (
	"strings"
	"time"

	ierr "github.com/flexprice/invoicer/internal/errors"
)

// Account is the billing account of a user. UserID and ID never change once created.
type Account struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Address      *Address  `json:"address,omitempty"`
	CurrencyCode string    `json:"currency_code"`
	Locale       string    `json:"locale"`
	CreatedAt    time.Time `json:"created_at"`
}

// TimeZone returns the location of the account address
func (a *Account) TimeZone() (*time.Location, error) {
	if a.Address == nil {
		return nil, ierr.NewError("account has no address").
			WithHint("The billing account has no address, so its time zone is unknown").
			WithReportableDetails(map[string]any{
				"account_id": a.ID,
				"user_id":    a.UserID,
			}).
			Mark(ierr.ErrValidation)
	}
	return a.Address.TimeZone()
}

// Address holds postal and contact details plus the jurisdiction used for tax.
// An invoice keeps its own copy so later account edits leave it unchanged.
type Address struct {
	ID              int64     `json:"id,omitempty"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Country         string    `json:"country"`
	TimeZoneID      string    `json:"time_zone_id"`
	Region          string    `json:"region,omitempty"`
	StateOrProvince string    `json:"state_or_province,omitempty"`
	Locality        string    `json:"locality,omitempty"`
	PostalCode      string    `json:"postal_code,omitempty"`
	Street          []string  `json:"street,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// TimeZone loads the IANA zone of the address
func (a *Address) TimeZone() (*time.Location, error) {
	if a == nil || strings.TrimSpace(a.TimeZoneID) == "" {
		return nil, ierr.NewError("address time zone not set").
			WithHint("The billing address must have a time zone").
			Mark(ierr.ErrValidation)
	}
	loc, err := time.LoadLocation(a.TimeZoneID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Unknown time zone %q on billing address", a.TimeZoneID).
			WithReportableDetails(map[string]any{
				"time_zone_id": a.TimeZoneID,
			}).
			Mark(ierr.ErrValidation)
	}
	return loc, nil
}

// Copy returns a detached snapshot of the address without its id
func (a *Address) Copy() *Address {
	if a == nil {
		return nil
	}
	c := *a
	c.ID = 0
	if a.Street != nil {
		c.Street = append([]string(nil), a.Street...)
	}
	return &c
}

// IsSameAs compares the postal and contact fields, ignoring identity and creation time
func (a *Address) IsSameAs(o *Address) bool {
	if a == nil || o == nil {
		return a == o
	}
	if len(a.Street) != len(o.Street) {
		return false
	}
	for i := range a.Street {
		if a.Street[i] != o.Street[i] {
			return false
		}
	}
	return a.Name == o.Name &&
		a.Email == o.Email &&
		a.Country == o.Country &&
		a.TimeZoneID == o.TimeZoneID &&
		a.Region == o.Region &&
		a.StateOrProvince == o.StateOrProvince &&
		a.Locality == o.Locality &&
		a.PostalCode == o.PostalCode
}
