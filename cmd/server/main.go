package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/invoicer/internal/api"
	"github.com/flexprice/invoicer/internal/api/cron"
	v1 "github.com/flexprice/invoicer/internal/api/v1"
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
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

const taskPollInterval = 30 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
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
	)

	// Service layer
	opts = append(opts, service.Module())

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
			startTaskWorker,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	invoicingService service.InvoicingService,
	creditService service.CreditService,
	generator service.InvoiceGenerator,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(logger),
		Account:     v1.NewAccountHandler(invoicingService, creditService, logger),
		Invoice:     v1.NewInvoiceHandler(invoicingService, logger),
		CronInvoice: cron.NewInvoiceHandler(generator, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(lc fx.Lifecycle, cfg *config.Configuration, r *gin.Engine, log *logger.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address, "mode", cfg.Deployment.Mode)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalw("failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down API server")
			return srv.Shutdown(ctx)
		},
	})
}

// startTaskWorker drains the account task queue in local mode. Other deployments run
// the queue from a dedicated worker.
func startTaskWorker(lc fx.Lifecycle, cfg *config.Configuration, tasks service.AccountTaskService, log *logger.Logger) {
	if cfg.Deployment.Mode != types.ModeLocal {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(taskPollInterval)
				defer ticker.Stop()

				for {
					drainTasks(ctx, tasks, log)
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func drainTasks(ctx context.Context, tasks service.AccountTaskService, log *logger.Logger) {
	for ctx.Err() == nil {
		taskCtx := types.SetRequestID(ctx, types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST))
		task, err := tasks.ProcessNext(taskCtx)
		if err != nil {
			log.Warnw("pausing account task queue until the next poll", "error", err)
			return
		}
		if task == nil {
			return
		}
	}
}
