package clickhouse

import (
	"context"
	"time"

	clickhouse_go "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/invoicer/internal/config"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/sentry"
	"go.uber.org/fx"
)

const pingRetries = 5

// Rows is the cursor returned by Query. driver.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Conn is the part of the ClickHouse driver the repositories use
type Conn interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
}

type ClickHouseStore struct {
	conn   driver.Conn
	sentry *sentry.Service
	logger *logger.Logger
}

// Module provides the ClickHouse store and closes it on shutdown
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewClickHouseStore),
		fx.Invoke(func(lc fx.Lifecycle, s *ClickHouseStore) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return s.Close()
				},
			})
		}),
	)
}

// NewClickHouseStore opens a connection and waits, with backoff, for the server to answer a ping
func NewClickHouseStore(cfg *config.Configuration, sentryService *sentry.Service, logger *logger.Logger) (*ClickHouseStore, error) {
	conn, err := clickhouse_go.Open(cfg.ClickHouse.GetClientOptions())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not initialise the clickhouse client").
			Mark(ierr.ErrDatabase)
	}

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := conn.Ping(ctx)
		if err != nil {
			logger.Warnw("clickhouse not reachable, retrying",
				"address", cfg.ClickHouse.Address,
				"error", err,
			)
		}
		return err
	}
	if err := backoff.Retry(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), pingRetries)); err != nil {
		_ = conn.Close()
		return nil, ierr.WithError(err).
			WithHint("Could not connect to clickhouse").
			WithReportableDetails(map[string]any{
				"address":  cfg.ClickHouse.Address,
				"database": cfg.ClickHouse.Database,
			}).
			Mark(ierr.ErrDatabase)
	}

	return &ClickHouseStore{
		conn:   conn,
		sentry: sentryService,
		logger: logger,
	}, nil
}

// GetConn returns a connection that traces every statement
func (s *ClickHouseStore) GetConn() Conn {
	return &tracedConn{
		conn:   s.conn,
		sentry: s.sentry,
	}
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

// tracedConn opens a sentry span around each statement
type tracedConn struct {
	conn   driver.Conn
	sentry *sentry.Service
}

func (tc *tracedConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	span, ctx := tc.sentry.StartClickHouseSpan(ctx, "clickhouse.query", map[string]interface{}{
		"query":      truncateQuery(query),
		"args_count": len(args),
	})

	rows, err := tc.conn.Query(ctx, query, args...)
	sentry.FinishSpan(span, err)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (tc *tracedConn) Exec(ctx context.Context, query string, args ...any) error {
	span, ctx := tc.sentry.StartClickHouseSpan(ctx, "clickhouse.exec", map[string]interface{}{
		"query":      truncateQuery(query),
		"args_count": len(args),
	})

	err := tc.conn.Exec(ctx, query, args...)
	sentry.FinishSpan(span, err)
	return err
}

func truncateQuery(query string) string {
	const maxLen = 1000
	if len(query) > maxLen {
		return query[:maxLen] + "..."
	}
	return query
}
