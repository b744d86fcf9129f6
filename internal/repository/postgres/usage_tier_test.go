package postgres

import (
	"context"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

var usageTierColumns = []string{"effective_date", "min_quantity", "cost_properties_in", "cost_datum_out", "cost_datum_days_stored"}

func (s *RepositorySuite) TestUsageTierGetEffective() {
	repo := NewUsageTierRepository(s.db, s.logger)
	effective := types.NewDate(2020, time.June, 1)

	rows := sqlmock.NewRows(usageTierColumns).
		AddRow(effective, int64(0), "0.000009", "0.000002", "0.0000004").
		AddRow(effective, int64(50000), "0.000006", "0.000001", "0.0000002")
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(effective_date) FROM usage_tier WHERE effective_date <= $1")).
		WithArgs("2020-07-01").
		WillReturnRows(rows)

	schedule, err := repo.GetEffective(context.Background(), time.Date(2020, time.July, 1, 15, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.True(schedule.EffectiveDate.Equal(effective))
	s.Require().Len(schedule.Tiers, 2)
	s.Equal(int64(50000), schedule.Tiers[1].Quantity)
	s.True(schedule.Tiers[1].DatumPropertiesInCost.Equal(decimal.RequireFromString("0.000006")))
}

func (s *RepositorySuite) TestUsageTierGetEffectiveNotFound() {
	repo := NewUsageTierRepository(s.db, s.logger)

	s.mock.ExpectQuery("FROM usage_tier").
		WithArgs("2000-01-01").
		WillReturnRows(sqlmock.NewRows(usageTierColumns))

	_, err := repo.GetEffective(context.Background(), types.NewDate(2000, time.January, 1))
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestUsageTierListGroupsByDate() {
	repo := NewUsageTierRepository(s.db, s.logger)
	first := types.NewDate(2008, time.January, 1)
	second := types.NewDate(2020, time.June, 1)

	rows := sqlmock.NewRows(usageTierColumns).
		AddRow(first, int64(0), "0.000009", "0.000002", "0.000000006").
		AddRow(second, int64(0), "0.000009", "0.000002", "0.0000004").
		AddRow(second, int64(50000), "0.000006", "0.000001", "0.0000002").
		AddRow(second, int64(400000), "0.000004", "0.0000005", "0.00000005")
	s.mock.ExpectQuery(regexp.QuoteMeta("ORDER BY effective_date, min_quantity")).
		WillReturnRows(rows)

	schedules, err := repo.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(schedules, 2)
	s.Len(schedules[0].Tiers, 1)
	s.Len(schedules[1].Tiers, 3)
	s.True(schedules[1].EffectiveDate.Equal(second))
}
