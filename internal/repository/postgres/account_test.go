package postgres

import (
	"context"
	"database/sql/driver"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/invoicer/internal/domain/account"
	ierr "github.com/flexprice/invoicer/internal/errors"
)

func (s *RepositorySuite) accountRows() *sqlmock.Rows {
	cols := append([]string{"id", "created_at", "user_id", "currency_code", "locale"}, addressRowColumns...)
	return sqlmock.NewRows(cols)
}

func (s *RepositorySuite) TestAccountGetForUser() {
	repo := NewAccountRepository(s.db, s.logger)

	rows := s.accountRows().AddRow(append([]driver.Value{int64(3), s.now, int64(42), "NZD", "en_NZ"}, s.addressValues(9)...)...)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE a.user_id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	acct, err := repo.GetForUser(context.Background(), 42)
	s.Require().NoError(err)
	s.Equal(int64(3), acct.ID)
	s.Equal(int64(42), acct.UserID)
	s.Equal("NZD", acct.CurrencyCode)
	s.Require().NotNil(acct.Address)
	s.Equal(int64(9), acct.Address.ID)
	s.Equal("Pacific/Auckland", acct.Address.TimeZoneID)
	s.Equal("Wellington", acct.Address.StateOrProvince)
	s.Equal([]string{"1 Main St", "Level 2"}, acct.Address.Street)
}

func (s *RepositorySuite) TestAccountGetNotFound() {
	repo := NewAccountRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE a.id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(s.accountRows())

	_, err := repo.Get(context.Background(), 1)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestAccountListAndCount() {
	repo := NewAccountRepository(s.db, s.logger)

	filter := account.NewDefaultFilter()
	filter.UserIDs = []int64{42, 43}

	rows := s.accountRows().
		AddRow(append([]driver.Value{int64(3), s.now, int64(42), "NZD", ""}, s.addressValues(9)...)...).
		AddRow(append([]driver.Value{int64(4), s.now, int64(43), "USD", ""}, s.addressValues(10)...)...)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE a.user_id = ANY($1) ORDER BY a.id LIMIT $2 OFFSET $3")).
		WithArgs(sqlmock.AnyArg(), 50, 0).
		WillReturnRows(rows)

	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM account a WHERE a.user_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	accounts, err := repo.List(context.Background(), filter)
	s.Require().NoError(err)
	s.Require().Len(accounts, 2)
	s.Equal(int64(4), accounts[1].ID)

	count, err := repo.Count(context.Background(), filter)
	s.Require().NoError(err)
	s.Equal(2, count)
}
