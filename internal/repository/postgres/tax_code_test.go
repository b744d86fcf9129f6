package postgres

import (
	"context"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/shopspring/decimal"
)

func (s *RepositorySuite) TestTaxCodeFind() {
	repo := NewTaxCodeRepository(s.db, s.logger)
	at := time.Date(2020, time.June, 30, 12, 0, 0, 0, time.UTC)
	validFrom := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE tax_zone = ANY($1) AND valid_from <= $2 AND (valid_to IS NULL OR valid_to > $3)")).
		WithArgs(sqlmock.AnyArg(), at, at).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "tax_zone", "item_key", "tax_code", "tax_rate", "valid_from", "valid_to",
		}).
			AddRow(int64(1), s.now, "NZ", "datum-out", "GST", "0.15", validFrom, nil).
			AddRow(int64(2), s.now, "NZ.Wellington", "datum-props-in", "LEVY", "0.01", validFrom, at.AddDate(1, 0, 0)))

	codes, err := repo.Find(context.Background(), &tax.Filter{
		Zones: []string{"NZ", "NZ.Wellington"},
		Date:  &at,
	})
	s.Require().NoError(err)
	s.Require().Len(codes, 2)
	s.Equal("GST", codes[0].Code)
	s.True(codes[0].Rate.Equal(decimal.RequireFromString("0.15")))
	s.Nil(codes[0].ValidTo)
	s.Require().NotNil(codes[1].ValidTo)
}

func (s *RepositorySuite) TestTaxCodeFindByItemKeyIgnoresCase() {
	repo := NewTaxCodeRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(item_key) = LOWER($1)")).
		WithArgs("DATUM-OUT").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "tax_zone", "item_key", "tax_code", "tax_rate", "valid_from", "valid_to",
		}))

	codes, err := repo.Find(context.Background(), &tax.Filter{ItemKey: "DATUM-OUT"})
	s.Require().NoError(err)
	s.Empty(codes)
}
