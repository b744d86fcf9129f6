package migration

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/flexprice/invoicer/internal/clickhouse"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator applies the embedded postgres migrations with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *logger.Logger
}

// New creates a migrator over an open postgres connection
func New(db *sql.DB, logger *logger.Logger) (*Migrator, error) {
	source, err := iofs.New(migrations.Postgres, "postgres")
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create postgres migration driver").
			Mark(ierr.ErrDatabase)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create migrate instance").
			Mark(ierr.ErrDatabase)
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	m.logger.Info("running migrations up")

	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Migration up failed").
			Mark(ierr.ErrDatabase)
	}

	return m.logVersion()
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	m.logger.Info("running migrations down")

	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no migrations to roll back")
		return nil
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Migration down failed").
			Mark(ierr.ErrDatabase)
	}

	m.logger.Info("all migrations rolled back")
	return nil
}

// Steps applies n migrations, up when positive and down when negative
func (m *Migrator) Steps(n int) error {
	m.logger.Infow("running migration steps", "steps", n)

	err := m.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no migrations to apply")
		return nil
	}
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Migration of %d steps failed", n).
			Mark(ierr.ErrDatabase)
	}

	return m.logVersion()
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

func (m *Migrator) logVersion() error {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return ierr.WithError(err).
			WithHint("Failed to read migration version").
			Mark(ierr.ErrDatabase)
	}

	m.logger.Infow("migrations completed",
		"version", version,
		"dirty", dirty,
	)
	return nil
}

// ApplyClickHouse executes every embedded clickhouse DDL file in name order.
// The statements are idempotent so the whole set runs on every call.
func ApplyClickHouse(ctx context.Context, conn clickhouse.Conn, logger *logger.Logger) error {
	return applyDDL(ctx, conn, migrations.ClickHouse, "clickhouse", logger)
}

func applyDDL(ctx context.Context, conn clickhouse.Conn, fsys fs.FS, dir string, logger *logger.Logger) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read embedded clickhouse schema").
			Mark(ierr.ErrSystem)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return ierr.WithError(err).
				WithHintf("Failed to read %s", name).
				Mark(ierr.ErrSystem)
		}

		logger.Infow("applying clickhouse schema", "file", name)
		if err := conn.Exec(ctx, string(stmt)); err != nil {
			return ierr.WithError(err).
				WithHintf("Failed to apply clickhouse schema %s", name).
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}
