package postgres

import (
	"context"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var invoiceItemColumns = []string{"id", "created_at", "inv_id", "item_type", "item_key", "quantity", "amount", "metadata"}

func (s *RepositorySuite) TestInvoiceItemCreateRoundsAmount() {
	repo := NewInvoiceItemRepository(s.db, s.logger)
	invoiceID := uuid.New()

	item := &invoice.InvoiceItem{
		InvoiceID: invoiceID,
		ItemType:  types.InvoiceItemTypeUsage,
		Key:       "datum-out",
		Quantity:  decimal.NewFromInt(1000),
		Amount:    decimal.RequireFromString("1.234567"),
		Metadata:  &invoice.ItemMetadata{NodeID: lo.ToPtr(int64(2))},
	}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_item")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), invoiceID, "usage", "datum-out",
			decimal.NewFromInt(1000), decimal.RequireFromString("1.23"), `{"node_id":2}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(repo.Create(context.Background(), item))
	s.NotEqual(uuid.Nil, item.ID)
	s.False(item.CreatedAt.IsZero())
}

func (s *RepositorySuite) TestInvoiceItemCreateWithoutMetadataStoresNull() {
	repo := NewInvoiceItemRepository(s.db, s.logger)
	invoiceID := uuid.New()

	item := &invoice.InvoiceItem{
		InvoiceID: invoiceID,
		ItemType:  types.InvoiceItemTypeTax,
		Key:       "GST",
		Quantity:  decimal.NewFromInt(1),
		Amount:    decimal.RequireFromString("0.89"),
	}

	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO invoice_item")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), invoiceID, "tax", "GST",
			decimal.NewFromInt(1), decimal.RequireFromString("0.89"), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(repo.Create(context.Background(), item))
}

func (s *RepositorySuite) TestInvoiceItemCreateRejectsDraft() {
	repo := NewInvoiceItemRepository(s.db, s.logger)

	err := repo.Create(context.Background(), &invoice.InvoiceItem{
		InvoiceID: invoice.DraftID,
		ItemType:  types.InvoiceItemTypeUsage,
		Key:       "datum-out",
		Amount:    decimal.NewFromInt(1),
	})
	s.True(ierr.IsInvalidOperation(err))
}

func (s *RepositorySuite) TestInvoiceItemListByInvoice() {
	repo := NewInvoiceItemRepository(s.db, s.logger)
	invoiceID := uuid.New()

	rows := sqlmock.NewRows(invoiceItemColumns).
		AddRow(uuid.NewString(), s.now, invoiceID.String(), "usage", "datum-out", "1000", "1.23", nil).
		AddRow(uuid.NewString(), s.now, invoiceID.String(), "credit", "account-credit", "1", "-1.23",
			[]byte(`{"available_credit_after":"8.77"}`))
	s.mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq")).
		WithArgs(invoiceID).
		WillReturnRows(rows)

	items, err := repo.ListByInvoice(context.Background(), invoiceID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Nil(items[0].Metadata)
	s.Equal(types.InvoiceItemTypeCredit, items[1].ItemType)
	s.Require().NotNil(items[1].Metadata.AvailableCreditAfter)
	s.True(items[1].Metadata.AvailableCreditAfter.Equal(decimal.RequireFromString("8.77")))
}

func (s *RepositorySuite) TestInvoiceItemListCorruptMetadata() {
	repo := NewInvoiceItemRepository(s.db, s.logger)
	invoiceID := uuid.New()

	rows := sqlmock.NewRows(invoiceItemColumns).
		AddRow(uuid.NewString(), s.now, invoiceID.String(), "usage", "datum-out", "1", "1", []byte(`{not json`))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM invoice_item")).
		WithArgs(invoiceID).
		WillReturnRows(rows)

	_, err := repo.ListByInvoice(context.Background(), invoiceID)
	s.True(ierr.IsDataIntegrity(err))
}
