package service

import (
	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/accounttask"
	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/flexprice/invoicer/internal/domain/usage"
	"github.com/flexprice/invoicer/internal/locker"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/sentry"
	"go.uber.org/fx"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	AccountRepo     account.Repository
	UsageRepo       usage.Repository
	UsageTierRepo   usage.TierRepository
	InvoiceRepo     invoice.Repository
	InvoiceItemRepo invoice.ItemRepository
	TaxCodeRepo     tax.Repository
	CreditRepo      credit.Repository
	AccountTaskRepo accounttask.Repository

	// TaxResolver overrides how tax codes are selected; DefaultTaxResolver when nil
	TaxResolver TaxResolver
	Locker      locker.Locker
	Deliverer   InvoiceDeliverer
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	accountRepo account.Repository,
	usageRepo usage.Repository,
	usageTierRepo usage.TierRepository,
	invoiceRepo invoice.Repository,
	invoiceItemRepo invoice.ItemRepository,
	taxCodeRepo tax.Repository,
	creditRepo credit.Repository,
	accountTaskRepo accounttask.Repository,
	locker locker.Locker,
	deliverer InvoiceDeliverer,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		Cache:           cache,
		Sentry:          sentry,
		AccountRepo:     accountRepo,
		UsageRepo:       usageRepo,
		UsageTierRepo:   usageTierRepo,
		InvoiceRepo:     invoiceRepo,
		InvoiceItemRepo: invoiceItemRepo,
		TaxCodeRepo:     taxCodeRepo,
		CreditRepo:      creditRepo,
		AccountTaskRepo: accountTaskRepo,
		Locker:          locker,
		Deliverer:       deliverer,
	}
}

// Module provides the service params and every service built on them
func Module() fx.Option {
	return fx.Provide(
		NewServiceParams,
		NewLoggingDeliverer,
		NewUsageService,
		NewCreditService,
		NewInvoicingService,
		NewInvoiceGenerator,
		NewAccountTaskService,
	)
}

func (p ServiceParams) taxResolver() TaxResolver {
	if p.TaxResolver != nil {
		return p.TaxResolver
	}
	return DefaultTaxResolver{}
}

func (p ServiceParams) invoicingConfig() config.InvoicingConfig {
	if p.Config == nil {
		return config.DefaultInvoicingConfig()
	}
	return p.Config.Invoicing
}
