package testutil

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/flexprice/invoicer/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the in-memory repositories for testing
type Stores struct {
	AccountRepo     *InMemoryAccountStore
	UsageRepo       *InMemoryUsageStore
	UsageTierRepo   *InMemoryUsageTierStore
	InvoiceRepo     *InMemoryInvoiceStore
	InvoiceItemRepo *InMemoryInvoiceItemStore
	TaxCodeRepo     *InMemoryTaxCodeStore
	CreditRepo      *InMemoryCreditStore
	AccountTaskRepo *InMemoryAccountTaskStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     *MockPostgresClient
	cache  *cache.InMemoryCache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	s.config = cfg
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	items := NewInMemoryInvoiceItemStore()
	s.stores = Stores{
		AccountRepo:     NewInMemoryAccountStore(),
		UsageRepo:       NewInMemoryUsageStore(),
		UsageTierRepo:   NewInMemoryUsageTierStore(),
		InvoiceRepo:     NewInMemoryInvoiceStore(items),
		InvoiceItemRepo: items,
		TaxCodeRepo:     NewInMemoryTaxCodeStore(),
		CreditRepo:      NewInMemoryCreditStore(),
		AccountTaskRepo: NewInMemoryAccountTaskStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.db.OnTxEnd(s.stores.AccountTaskRepo.Release)
	s.cache = cache.NewInMemoryCache(true)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.AccountRepo.Clear()
	s.stores.UsageRepo.Clear()
	s.stores.UsageTierRepo.Clear()
	s.stores.InvoiceRepo.Clear()
	s.stores.InvoiceItemRepo.Clear()
	s.stores.TaxCodeRepo.Clear()
	s.stores.CreditRepo.Clear()
	s.stores.AccountTaskRepo.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() *cache.InMemoryCache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
