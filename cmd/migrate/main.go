package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/flexprice/invoicer/internal/clickhouse"
	"github.com/flexprice/invoicer/internal/config"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/migration"
	"github.com/flexprice/invoicer/internal/postgres"
	"github.com/flexprice/invoicer/internal/sentry"
)

func main() {
	down := flag.Bool("down", false, "Roll back every applied migration")
	steps := flag.Int("steps", 0, "Apply n migrations, or roll back n when negative")
	withClickHouse := flag.Bool("clickhouse", true, "Also apply the clickhouse schema")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("connecting to database", "host", cfg.Postgres.Host)
	db, err := postgres.NewDB(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	m, err := migration.New(db.DB.DB, logger)
	if err != nil {
		logger.Fatalw("failed to create migrator", "error", err)
	}
	defer m.Close()

	switch {
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}
	if err != nil {
		logger.Fatalw("postgres migration failed", "error", err)
	}

	if !*withClickHouse || *down {
		logger.Info("migration completed successfully")
		return
	}

	store, err := clickhouse.NewClickHouseStore(cfg, sentry.NewSentryService(cfg, logger), logger)
	if err != nil {
		logger.Fatalw("failed to connect to clickhouse", "error", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migration.ApplyClickHouse(ctx, store.GetConn(), logger); err != nil {
		logger.Fatalw("clickhouse migration failed", "error", err)
	}
	logger.Info("migration completed successfully")
}
