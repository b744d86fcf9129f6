package postgres

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/lib/pq"
)

// addressColumns selects an address joined as "ad" with columns prefixed addr_
const addressColumns = `
	ad.id AS addr_id, ad.created_at AS addr_created_at, ad.disp_name AS addr_disp_name,
	ad.email AS addr_email, ad.country AS addr_country, ad.time_zone AS addr_time_zone,
	ad.region AS addr_region, ad.state_prov AS addr_state_prov, ad.locality AS addr_locality,
	ad.postal_code AS addr_postal_code, ad.address AS addr_street`

type addressRow struct {
	AddressID        int64          `db:"addr_id"`
	AddressCreatedAt time.Time      `db:"addr_created_at"`
	Name             string         `db:"addr_disp_name"`
	Email            string         `db:"addr_email"`
	Country          string         `db:"addr_country"`
	TimeZone         string         `db:"addr_time_zone"`
	Region           string         `db:"addr_region"`
	StateOrProvince  string         `db:"addr_state_prov"`
	Locality         string         `db:"addr_locality"`
	PostalCode       string         `db:"addr_postal_code"`
	Street           pq.StringArray `db:"addr_street"`
}

func (r addressRow) toDomain() *account.Address {
	return &account.Address{
		ID:              r.AddressID,
		Name:            r.Name,
		Email:           r.Email,
		Country:         r.Country,
		TimeZoneID:      r.TimeZone,
		Region:          r.Region,
		StateOrProvince: r.StateOrProvince,
		Locality:        r.Locality,
		PostalCode:      r.PostalCode,
		Street:          []string(r.Street),
		CreatedAt:       r.AddressCreatedAt,
	}
}
