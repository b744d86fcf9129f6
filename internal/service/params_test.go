package service

import (
	"github.com/flexprice/invoicer/internal/locker"
	"github.com/flexprice/invoicer/internal/testutil"
)

// newTestServiceParams wires every service dependency to the suite's in-memory stores
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		DB:              s.GetDB(),
		Cache:           s.GetCache(),
		AccountRepo:     stores.AccountRepo,
		UsageRepo:       stores.UsageRepo,
		UsageTierRepo:   stores.UsageTierRepo,
		InvoiceRepo:     stores.InvoiceRepo,
		InvoiceItemRepo: stores.InvoiceItemRepo,
		TaxCodeRepo:     stores.TaxCodeRepo,
		CreditRepo:      stores.CreditRepo,
		AccountTaskRepo: stores.AccountTaskRepo,
		Locker:          locker.NewLocalLocker(),
		Deliverer:       NewLoggingDeliverer(s.GetLogger()),
	}
}
