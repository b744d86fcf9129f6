package postgres

import (
	"context"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/shopspring/decimal"
)

func (s *RepositorySuite) TestClaimAccountBalanceCredit() {
	repo := NewCreditRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("LEAST(prev.avail_credit, $2)")).
		WithArgs(int64(3), decimal.RequireFromString("7.50")).
		WillReturnRows(sqlmock.NewRows([]string{"claimed", "available_after"}).AddRow("7.50", "2.50"))

	claim, err := repo.ClaimAccountBalanceCredit(context.Background(), 3, decimal.RequireFromString("7.50"))
	s.Require().NoError(err)
	s.True(claim.Claimed.Equal(decimal.RequireFromString("7.5")))
	s.True(claim.AvailableAfter.Equal(decimal.RequireFromString("2.5")))
}

func (s *RepositorySuite) TestClaimAccountBalanceCreditNothingAvailable() {
	repo := NewCreditRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("UPDATE account_balance")).
		WithArgs(int64(3), decimal.NewFromInt(5)).
		WillReturnRows(sqlmock.NewRows([]string{"claimed", "available_after"}))

	claim, err := repo.ClaimAccountBalanceCredit(context.Background(), 3, decimal.NewFromInt(5))
	s.Require().NoError(err)
	s.True(claim.Claimed.IsZero())
}

func (s *RepositorySuite) TestClaimAccountBalanceCreditNonPositiveTotal() {
	repo := NewCreditRepository(s.db, s.logger)

	// no statement is expected
	claim, err := repo.ClaimAccountBalanceCredit(context.Background(), 3, decimal.Zero)
	s.Require().NoError(err)
	s.True(claim.Claimed.IsZero())
}

func (s *RepositorySuite) TestGetBalanceForUser() {
	repo := NewCreditRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN account_balance")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "user_id", "avail_credit", "updated_at"}).
			AddRow(int64(3), int64(42), "10.00", s.now))

	balance, err := repo.GetBalanceForUser(context.Background(), 42)
	s.Require().NoError(err)
	s.Equal(int64(3), balance.AccountID)
	s.True(balance.AvailableCredit.Equal(decimal.NewFromInt(10)))
}

func (s *RepositorySuite) TestGetBalanceForUnknownUser() {
	repo := NewCreditRepository(s.db, s.logger)

	s.mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN account_balance")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "user_id", "avail_credit", "updated_at"}))

	_, err := repo.GetBalanceForUser(context.Background(), 99)
	s.True(ierr.IsNotFound(err))
}
