package service

import (
	"testing"
	"time"

	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/flexprice/invoicer/internal/domain/usage"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/testutil"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoicingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InvoicingService
	july    GenerateInvoiceParams
}

func TestInvoicingService(t *testing.T) {
	suite.Run(t, new(InvoicingServiceSuite))
}

func (s *InvoicingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoicingService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.july = GenerateInvoiceParams{
		UserID:    10,
		StartDate: types.NewDate(2020, time.July, 1),
		EndDate:   types.NewDate(2020, time.August, 1),
	}
	s.setupTestData()
}

func (s *InvoicingServiceSuite) setupTestData() {
	stores := s.GetStores()
	s.NoError(stores.AccountRepo.Create(s.GetContext(), testutil.NewTestAccount(1, 10, "US", "CA", "America/Los_Angeles")))
	s.NoError(stores.AccountRepo.Create(s.GetContext(), testutil.NewTestAccount(2, 20, "US", "", "America/New_York")))
	stores.UsageTierRepo.Add(testutil.Schedule2020())
}

// recordScenarioUsage splits 1.5M properties in across two nodes in July 2020
func (s *InvoicingServiceSuite) recordScenarioUsage() {
	store := s.GetStores().UsageRepo
	store.Record(10, 1, types.NewDate(2020, time.July, 5), usage.Counts{DatumPropertiesIn: 900000})
	store.Record(10, 2, types.NewDate(2020, time.July, 20), usage.Counts{DatumPropertiesIn: 600000})
}

// recordFullUsage adds 50M datum out, taxed at 20% in the account's state, and seeds credit
func (s *InvoicingServiceSuite) recordFullUsage() {
	s.recordScenarioUsage()
	stores := s.GetStores()
	stores.UsageRepo.Record(10, 2, types.NewDate(2020, time.July, 21), usage.Counts{DatumOut: 50000000})
	s.NoError(stores.TaxCodeRepo.Create(s.GetContext(), &tax.TaxCode{
		Zone:      "US.CA",
		ItemKey:   "datum-out",
		Code:      "CA-DATA",
		Rate:      decimal.RequireFromString("0.2"),
		ValidFrom: types.NewDate(2020, time.January, 1),
	}))
	stores.CreditRepo.SetBalance(1, 10, decimal.NewFromInt(10))
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceTieredUsage() {
	s.recordScenarioUsage()

	inv, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	s.Require().NotNil(inv)

	s.False(inv.Identity.IsDraft())
	s.Equal(int64(1), inv.AccountID)
	s.Equal("USD", inv.CurrencyCode)
	s.True(inv.StartDate.Equal(s.july.StartDate))
	s.True(inv.EndDate.Equal(s.july.EndDate))
	s.Len(inv.NodeUsage, 2)

	s.Require().Len(inv.Items, 1)
	item := inv.Items[0]
	s.Equal(types.InvoiceItemTypeUsage, item.ItemType)
	s.Equal("datum-props-in", item.Key)
	s.Equal(inv.ID(), item.InvoiceID)
	s.True(decimal.NewFromInt(1500000).Equal(item.Quantity))
	// 50000*t1 + 350000*t2 + 600000*t3 + 500000*t4
	s.True(decimal.RequireFromString("5.95").Equal(item.Amount), item.Amount.String())

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID())
	s.NoError(err)
	s.True(inv.IsSameAs(stored))
	s.Equal(1, s.GetStores().InvoiceItemRepo.Len())
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceFullPipeline() {
	s.recordFullUsage()

	inv, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	s.Require().NotNil(inv)

	type line struct {
		Type   types.InvoiceItemType
		Key    string
		Amount string
	}
	got := lo.Map(inv.Items, func(item *invoice.InvoiceItem, _ int) line {
		return line{Type: item.ItemType, Key: item.Key, Amount: item.Amount.StringFixed(2)}
	})
	want := []line{
		{Type: types.InvoiceItemTypeUsage, Key: "datum-props-in", Amount: "5.95"},
		{Type: types.InvoiceItemTypeUsage, Key: "datum-out", Amount: "10.55"},
		{Type: types.InvoiceItemTypeTax, Key: "CA-DATA", Amount: "2.11"},
		{Type: types.InvoiceItemTypeCredit, Key: "account-credit", Amount: "-10.00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		s.T().Errorf("items mismatch (-want +got):\n%s", diff)
	}

	s.True(decimal.RequireFromString("8.61").Equal(inv.TotalAmount()), inv.TotalAmount().String())
	s.True(s.GetStores().CreditRepo.Available(1).IsZero())
	s.Equal(4, s.GetStores().InvoiceItemRepo.Len())
	s.Equal(1, s.GetDB().Commits)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceWithoutUsage() {
	inv, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	s.Nil(inv)

	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), invoice.NewDefaultFilter())
	s.NoError(err)
	s.Zero(count)
	s.Zero(s.GetStores().InvoiceItemRepo.Len())
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceFreeUsage() {
	s.GetStores().UsageTierRepo.Clear()
	s.GetStores().UsageTierRepo.Add(testutil.FlatSchedule(types.NewDate(2020, time.January, 1), "0", "0", "0"))
	s.recordScenarioUsage()

	inv, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	s.Nil(inv)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceDryRun() {
	s.recordFullUsage()
	params := s.july
	params.DryRun = true

	first, err := s.service.GenerateInvoice(s.GetContext(), params)
	s.NoError(err)
	s.Require().NotNil(first)
	second, err := s.service.GenerateInvoice(s.GetContext(), params)
	s.NoError(err)

	s.True(first.Identity.IsDraft())
	s.True(first.IsSameAs(second))
	for _, item := range first.Items {
		s.Equal(invoice.DraftID, item.InvoiceID)
	}

	// nothing was written or claimed
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), invoice.NewDefaultFilter())
	s.NoError(err)
	s.Zero(count)
	s.Zero(s.GetStores().InvoiceItemRepo.Len())
	s.True(decimal.NewFromInt(10).Equal(s.GetStores().CreditRepo.Available(1)))
	s.Zero(s.GetDB().Commits + s.GetDB().Rollbacks)

	// the real run produces the same invoice
	persisted, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	s.True(first.IsSameAs(persisted))
	s.Equal(1, s.GetDB().Commits)
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceTwiceForPeriod() {
	s.recordScenarioUsage()

	_, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.NoError(err)
	_, err = s.service.GenerateInvoice(s.GetContext(), s.july)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceValidation() {
	tests := []struct {
		name   string
		params GenerateInvoiceParams
	}{
		{name: "missing_start", params: GenerateInvoiceParams{UserID: 10, EndDate: s.july.EndDate}},
		{name: "missing_end", params: GenerateInvoiceParams{UserID: 10, StartDate: s.july.StartDate}},
		{name: "empty_period", params: GenerateInvoiceParams{UserID: 10, StartDate: s.july.StartDate, EndDate: s.july.StartDate}},
		{name: "inverted_period", params: GenerateInvoiceParams{UserID: 10, StartDate: s.july.EndDate, EndDate: s.july.StartDate}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.GenerateInvoice(s.GetContext(), tt.params)
			s.True(ierr.IsValidation(err), "got %v", err)
		})
	}
}

func (s *InvoicingServiceSuite) TestGenerateInvoiceUnknownUser() {
	params := s.july
	params.UserID = 99

	_, err := s.service.GenerateInvoice(s.GetContext(), params)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoicingServiceSuite) TestGenerationStates() {
	s.recordScenarioUsage()
	svc := s.service.(*invoicingService)

	tests := []struct {
		name   string
		params GenerateInvoiceParams
		want   []generationState
	}{
		{
			name:   "persisted",
			params: GenerateInvoiceParams{UserID: 10, StartDate: s.july.StartDate, EndDate: s.july.EndDate},
			want: []generationState{
				stateAccountResolved, stateUsageFetched, stateIdentityAssigned,
				stateItemsBuilt, stateTaxed, stateCredited, stateDone,
			},
		},
		{
			name:   "draft",
			params: GenerateInvoiceParams{UserID: 10, StartDate: s.july.StartDate, EndDate: s.july.EndDate, DryRun: true},
			want: []generationState{
				stateAccountResolved, stateUsageFetched, stateItemsBuilt,
				stateTaxed, stateCredited, stateIdentityAssigned, stateDone,
			},
		},
		{
			name:   "nothing_to_bill",
			params: GenerateInvoiceParams{UserID: 10, StartDate: types.NewDate(2020, time.September, 1), EndDate: types.NewDate(2020, time.October, 1)},
			want:   []generationState{stateAccountResolved, stateUsageFetched, stateNoInvoiceNeeded},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			run := newGenerationRun(svc, tt.params)
			_, err := run.run(s.GetContext())
			s.NoError(err)
			if diff := cmp.Diff(tt.want, run.visited); diff != "" {
				s.T().Errorf("states mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func (s *InvoicingServiceSuite) TestGetInvoice() {
	s.recordScenarioUsage()
	inv, err := s.service.GenerateInvoice(s.GetContext(), s.july)
	s.Require().NoError(err)

	got, err := s.service.GetInvoice(s.GetContext(), 10, inv.ID())
	s.NoError(err)
	s.True(inv.IsSameAs(got))

	// another user's invoice is not found
	_, err = s.service.GetInvoice(s.GetContext(), 20, inv.ID())
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetInvoice(s.GetContext(), 10, types.NewEntityID())
	s.True(ierr.IsNotFound(err))
}

func (s *InvoicingServiceSuite) TestListInvoicesAndLatest() {
	store := s.GetStores().UsageRepo
	for _, month := range []time.Month{time.June, time.July, time.August} {
		store.Record(10, 1, types.NewDate(2020, month, 10), usage.Counts{DatumPropertiesIn: 100000})
	}

	latest, err := s.service.FindLatestInvoiceForAccount(s.GetContext(), 1)
	s.NoError(err)
	s.Nil(latest)

	for _, month := range []time.Month{time.July, time.June, time.August} {
		start := types.NewDate(2020, month, 1)
		_, err := s.service.GenerateInvoice(s.GetContext(), GenerateInvoiceParams{
			UserID:    10,
			StartDate: start,
			EndDate:   start.AddDate(0, 1, 0),
		})
		s.Require().NoError(err)
	}

	latest, err = s.service.FindLatestInvoiceForAccount(s.GetContext(), 1)
	s.NoError(err)
	s.Require().NotNil(latest)
	s.True(latest.EndDate.Equal(types.NewDate(2020, time.September, 1)))

	filter := invoice.NewDefaultFilter()
	filter.UserID = lo.ToPtr(int64(10))
	filter.Sort = lo.ToPtr(string(types.InvoiceSortByStartDate))
	filter.Order = lo.ToPtr(types.OrderAsc)
	filter.Limit = lo.ToPtr(2)

	resp, err := s.service.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(3, resp.Pagination.Total)
	s.Require().Len(resp.Items, 2)
	s.True(resp.Items[0].StartDate.Equal(types.NewDate(2020, time.June, 1)))
	s.True(resp.Items[1].StartDate.Equal(types.NewDate(2020, time.July, 1)))

	filter.UserID = lo.ToPtr(int64(20))
	resp, err = s.service.ListInvoices(s.GetContext(), filter)
	s.NoError(err)
	s.Zero(resp.Pagination.Total)
	s.Empty(resp.Items)
}

func (s *InvoicingServiceSuite) TestListInvoicesInvalidSort() {
	filter := invoice.NewDefaultFilter()
	filter.Sort = lo.ToPtr("amount")

	_, err := s.service.ListInvoices(s.GetContext(), filter)
	s.True(ierr.IsValidation(err))
}
