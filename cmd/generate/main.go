package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flexprice/invoicer/internal/cache"
	"github.com/flexprice/invoicer/internal/clickhouse"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/locker"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/repository"
	"github.com/flexprice/invoicer/internal/sentry"
	"github.com/flexprice/invoicer/internal/service"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/flexprice/invoicer/internal/validator"
	"go.uber.org/fx"
)

func main() {
	endDateFlag := flag.String("end-date", "", "Invoice every account up to this date, YYYY-MM-DD (default: first of this month)")
	dryRun := flag.Bool("dry-run", false, "Compute invoices without saving them or claiming credit")
	flag.Parse()

	endDate := types.StartOfMonth(time.Now().UTC())
	if *endDateFlag != "" {
		parsed, err := types.ParseDate(*endDateFlag)
		if err != nil {
			log.Fatalf("Invalid -end-date %q: %v", *endDateFlag, err)
		}
		endDate = parsed
	}

	var generator service.InvoiceGenerator
	var appLog *logger.Logger

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
		),
		sentry.Module(),
		postgres.Module(),
		clickhouse.Module(),
		cache.Module(),
		locker.Module(),
		repository.Module(),
		service.Module(),
		fx.Populate(&generator, &appLog),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = types.SetRequestID(ctx, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BATCH))

	resp, err := generator.GenerateInvoices(ctx, endDate, *dryRun)
	if resp != nil {
		appLog.Infow("invoice generation finished",
			"end_date", endDate.Format(types.DateLayout),
			"dry_run", *dryRun,
			"accounts", resp.Accounts,
			"generated", resp.Generated,
			"skipped", resp.Skipped,
			"failed", resp.Failed,
		)
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()
	if stopErr := app.Stop(stopCtx); stopErr != nil {
		appLog.Warnw("failed to stop cleanly", "error", stopErr)
	}

	if err != nil {
		appLog.Errorw("invoice generation failed", "error", err)
		os.Exit(1)
	}
}
