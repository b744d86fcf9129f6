package repository

import (
	"github.com/flexprice/invoicer/internal/clickhouse"
	"github.com/flexprice/invoicer/internal/domain/account"
	"github.com/flexprice/invoicer/internal/domain/accounttask"
	"github.com/flexprice/invoicer/internal/domain/credit"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/tax"
	"github.com/flexprice/invoicer/internal/domain/usage"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	clickhouseRepo "github.com/flexprice/invoicer/internal/repository/clickhouse"
	postgresRepo "github.com/flexprice/invoicer/internal/repository/postgres"
	"go.uber.org/fx"
)

// Module provides every repository to the fx graph
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewAccountRepository,
			NewUsageRepository,
			NewUsageTierRepository,
			NewInvoiceRepository,
			NewInvoiceItemRepository,
			NewTaxCodeRepository,
			NewCreditRepository,
			NewAccountTaskRepository,
		),
	)
}

func NewAccountRepository(db postgres.IClient, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(db, logger)
}

func NewUsageRepository(store *clickhouse.ClickHouseStore, logger *logger.Logger) usage.Repository {
	return clickhouseRepo.NewUsageRepository(store, logger)
}

func NewUsageTierRepository(db postgres.IClient, logger *logger.Logger) usage.TierRepository {
	return postgresRepo.NewUsageTierRepository(db, logger)
}

func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewInvoiceItemRepository(db postgres.IClient, logger *logger.Logger) invoice.ItemRepository {
	return postgresRepo.NewInvoiceItemRepository(db, logger)
}

func NewTaxCodeRepository(db postgres.IClient, logger *logger.Logger) tax.Repository {
	return postgresRepo.NewTaxCodeRepository(db, logger)
}

func NewCreditRepository(db postgres.IClient, logger *logger.Logger) credit.Repository {
	return postgresRepo.NewCreditRepository(db, logger)
}

func NewAccountTaskRepository(db postgres.IClient, logger *logger.Logger) accounttask.Repository {
	return postgresRepo.NewAccountTaskRepository(db, logger)
}
