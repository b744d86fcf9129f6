package postgres

import (
	"context"
	"database/sql/driver"
	"regexp"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

func (s *RepositorySuite) newInvoice() *invoice.Invoice {
	return &invoice.Invoice{
		Identity:     invoice.Draft(),
		UserID:       42,
		AccountID:    3,
		CurrencyCode: "NZD",
		StartDate:    types.NewDate(2020, time.July, 1),
		EndDate:      types.NewDate(2020, time.August, 1),
		Address: &account.Address{
			ID:         9,
			Name:       "Tester Testerson",
			Country:    "NZ",
			TimeZoneID: "Pacific/Auckland",
		},
		NodeUsage: []*usage.RawUsageSnapshot{
			{NodeID: 2, Counts: usage.Counts{DatumPropertiesIn: 100, DatumOut: 200, DatumDaysStored: 300}},
		},
	}
}

func (s *RepositorySuite) TestInvoiceCreate() {
	repo := NewInvoiceRepository(s.db, s.logger)
	inv := s.newInvoice()

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO address")).
		WithArgs(sqlmock.AnyArg(), "Tester Testerson", "", "NZ", "Pacific/Auckland", "", "", "", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice (")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(42), int64(3), int64(77), "NZD", "2020-07-01", "2020-08-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_node_usage")).
		WithArgs(sqlmock.AnyArg(), int64(2), sqlmock.AnyArg(), int64(100), int64(200), int64(300)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.Require().NoError(repo.Create(context.Background(), inv))
	s.False(inv.Identity.IsDraft())
	s.NotEqual(invoice.DraftID, inv.ID())
	s.Equal(int64(77), inv.Address.ID)
	s.False(inv.CreatedAt.IsZero())
}

func (s *RepositorySuite) TestInvoiceCreateDuplicatePeriod() {
	repo := NewInvoiceRepository(s.db, s.logger)
	inv := s.newInvoice()

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO address")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice (")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "invoice_account_period_unq"})
	s.mock.ExpectRollback()

	err := repo.Create(context.Background(), inv)
	s.True(ierr.IsAlreadyExists(err))
	s.True(inv.Identity.IsDraft())
}

func (s *RepositorySuite) TestInvoiceCreateRejectsInvalid() {
	repo := NewInvoiceRepository(s.db, s.logger)
	inv := s.newInvoice()
	inv.EndDate = types.NewDate(2020, time.June, 1)

	s.True(ierr.IsValidation(repo.Create(context.Background(), inv)))
}

func (s *RepositorySuite) TestInvoiceGet() {
	repo := NewInvoiceRepository(s.db, s.logger)
	id := uuid.New()
	itemID := uuid.New()

	header := sqlmock.NewRows(append([]string{
		"id", "created_at", "user_id", "account_id", "currency_code", "start_date", "end_date",
	}, addressRowColumns...)).
		AddRow(append([]driver.Value{
			id.String(), s.now, int64(42), int64(3), "NZD",
			types.NewDate(2020, time.July, 1), types.NewDate(2020, time.August, 1),
		}, s.addressValues(77)...)...)
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE i.id = $1")).
		WithArgs(id).
		WillReturnRows(header)

	items := sqlmock.NewRows(invoiceItemColumns).
		AddRow(itemID.String(), s.now, id.String(), "usage", "datum-props-in", "100", "5.95",
			[]byte(`{"usage_info":{"unit_type":"datum-props-in","amount":"100","cost":"5.95"},"node_id":2}`))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM invoice_item")).
		WithArgs(id).
		WillReturnRows(items)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM invoice_node_usage")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"node_id", "prop_in", "datum_out", "datum_stored"}).
			AddRow(int64(2), int64(100), int64(0), int64(0)))

	inv, err := repo.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(id, inv.ID())
	s.Equal("Pacific/Auckland", inv.Address.TimeZoneID)
	s.Require().Len(inv.Items, 1)
	s.Equal(itemID, inv.Items[0].ID)
	s.Equal(types.InvoiceItemTypeUsage, inv.Items[0].ItemType)
	s.True(inv.Items[0].Amount.Equal(decimal.RequireFromString("5.95")))
	s.Require().NotNil(inv.Items[0].Metadata)
	s.Equal(lo.ToPtr(int64(2)), inv.Items[0].Metadata.NodeID)
	s.Require().Len(inv.NodeUsage, 1)
	s.Equal(int64(100), inv.NodeUsage[0].DatumPropertiesIn)
}

func (s *RepositorySuite) TestInvoiceListByAccount() {
	repo := NewInvoiceRepository(s.db, s.logger)

	filter := invoice.NewDefaultFilter()
	filter.AccountID = lo.ToPtr(int64(3))
	filter.Sort = lo.ToPtr(string(types.InvoiceSortByEndDate))
	filter.Limit = lo.ToPtr(1)

	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE i.account_id = $1 ORDER BY i.end_date desc, i.id LIMIT $2 OFFSET $3")).
		WithArgs(int64(3), 1, 0).
		WillReturnRows(sqlmock.NewRows(append([]string{
			"id", "created_at", "user_id", "account_id", "currency_code", "start_date", "end_date",
		}, addressRowColumns...)))

	invoices, err := repo.List(context.Background(), filter)
	s.Require().NoError(err)
	s.Empty(invoices)
}

func (s *RepositorySuite) TestInvoiceListRejectsUnknownSort() {
	repo := NewInvoiceRepository(s.db, s.logger)

	filter := invoice.NewDefaultFilter()
	filter.Sort = lo.ToPtr("amount; DROP TABLE invoice")

	_, err := repo.List(context.Background(), filter)
	s.True(ierr.IsValidation(err))
}
