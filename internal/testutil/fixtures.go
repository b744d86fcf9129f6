package testutil

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/usage"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// Schedule2020 is the four tier schedule effective from 2020-06-01
func Schedule2020() *usage.EffectiveTierSchedule {
	s, err := usage.NewEffectiveTierSchedule(types.NewDate(2020, time.June, 1), []usage.Tier{
		{Quantity: 0, DatumPropertiesInCost: dec("0.000009"), DatumOutCost: dec("0.000002"), DatumDaysStoredCost: dec("0.0000004")},
		{Quantity: 50000, DatumPropertiesInCost: dec("0.000006"), DatumOutCost: dec("0.000001"), DatumDaysStoredCost: dec("0.0000002")},
		{Quantity: 400000, DatumPropertiesInCost: dec("0.000004"), DatumOutCost: dec("0.0000005"), DatumDaysStoredCost: dec("0.00000005")},
		{Quantity: 1000000, DatumPropertiesInCost: dec("0.000002"), DatumOutCost: dec("0.0000002"), DatumDaysStoredCost: dec("0.000000006")},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// FlatSchedule prices every unit of every resource at the given costs from effectiveDate
func FlatSchedule(effectiveDate time.Time, propsIn, datumOut, daysStored string) *usage.EffectiveTierSchedule {
	s, err := usage.NewEffectiveTierSchedule(effectiveDate, []usage.Tier{
		{Quantity: 0, DatumPropertiesInCost: dec(propsIn), DatumOutCost: dec(datumOut), DatumDaysStoredCost: dec(daysStored)},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// NewTestAccount returns an account with an address in the given country and state
func NewTestAccount(id, userID int64, country, state, timeZone string) *account.Account {
	return &account.Account{
		ID:     id,
		UserID: userID,
		Address: &account.Address{
			ID:              id,
			Name:            "Test Account",
			Email:           "billing@example.com",
			Country:         country,
			StateOrProvince: state,
			TimeZoneID:      timeZone,
			Locality:        "Springfield",
			PostalCode:      "12345",
			Street:          []string{"1 Main St"},
		},
		CurrencyCode: "USD",
		Locale:       "en_US",
		CreatedAt:    time.Now().UTC(),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
