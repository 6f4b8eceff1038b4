package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/notifylab/notify-agent/internal/agent"
	"github.com/notifylab/notify-agent/internal/api"
	"github.com/notifylab/notify-agent/internal/capture"
	"github.com/notifylab/notify-agent/internal/config"
	"github.com/notifylab/notify-agent/internal/dispatch"
	"github.com/notifylab/notify-agent/internal/identity"
	"github.com/notifylab/notify-agent/internal/infra/sqlite"
	"github.com/notifylab/notify-agent/internal/infra/sqlite/migrations"
	"github.com/notifylab/notify-agent/internal/netcheck"
	"github.com/notifylab/notify-agent/internal/observability"
	"github.com/notifylab/notify-agent/internal/repository"
	"github.com/notifylab/notify-agent/internal/retry"
	"github.com/notifylab/notify-agent/internal/settings"
	"github.com/notifylab/notify-agent/internal/source"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := sqlite.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("sqlite initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("sqlite underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pendingRepo := repository.NewGormPendingRepo(db)
	logRepo := repository.NewGormLogRepo(db)
	configStore := settings.NewGormConfigStore(db)
	secretStore := settings.NewGormSecretStore(db)

	if err := seedSettings(ctx, cfg, configStore, secretStore); err != nil {
		logger.Fatal("failed to seed settings", zap.Error(err))
	}

	provider, err := identity.NewProvider(configStore)
	if err != nil {
		logger.Fatal("identity provider init failed", zap.Error(err))
	}

	checker := netcheck.NewDialChecker(cfg.ProbeAddr, cfg.ProbeTimeout())
	metrics := observability.NewMetrics()

	dispatcher, err := dispatch.NewDispatcher(pendingRepo, logRepo, checker, logger)
	if err != nil {
		logger.Fatal("dispatcher init failed", zap.Error(err))
	}
	dispatcher.SetMetrics(metrics)

	sweeper, err := retry.NewSweeper(pendingRepo, logRepo, dispatcher, checker, logger)
	if err != nil {
		logger.Fatal("sweeper init failed", zap.Error(err))
	}
	sweeper.SetMetrics(metrics)

	scheduler, err := retry.NewScheduler(sweeper, checker, retry.DefaultBackoff(), cfg.SweepInterval(), logger)
	if err != nil {
		logger.Fatal("scheduler init failed", zap.Error(err))
	}

	builder, err := capture.NewBuilder(capture.DefaultLabels(), time.Local)
	if err != nil {
		logger.Fatal("payload builder init failed", zap.Error(err))
	}

	pipeline, err := agent.New(configStore, secretStore, provider, builder, dispatcher, cfg.OwnPackage, logger)
	if err != nil {
		logger.Fatal("agent init failed", zap.Error(err))
	}
	pipeline.SetMetrics(metrics)

	events, err := source.NewSocketSource(cfg.EventSocket, logger)
	if err != nil {
		logger.Fatal("event source init failed", zap.Error(err))
	}

	app, err := api.NewServer(api.Deps{
		SQLDB:   sqlDB,
		Queue:   pendingRepo,
		Logs:    logRepo,
		Config:  configStore,
		Secrets: secretStore,
		Sender:  dispatcher,
		Sweeps:  scheduler,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("diagnostics api init failed", zap.Error(err))
	}

	logger.Info("notify-agent started",
		zap.Int("port", cfg.APIPort),
		zap.String("eventSocket", cfg.EventSocket),
		zap.Duration("sweepInterval", cfg.SweepInterval()),
	)

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Start(groupCtx)
	})

	g.Go(func() error {
		return pipeline.Run(groupCtx, events)
	})

	g.Go(func() error {
		return app.Listen(fmt.Sprintf("127.0.0.1:%d", cfg.APIPort))
	})

	g.Go(func() error {
		<-groupCtx.Done()
		events.Close() //nolint:errcheck // best-effort close on shutdown
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	// Drain any backlog left over from the previous run.
	scheduler.RequestSweep(0)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("notify-agent exited with error", zap.Error(err))
	}

	logger.Info("notify-agent stopped")
}

// seedSettings applies env-provided defaults to keys the user has not set.
func seedSettings(ctx context.Context, cfg *config.Config, configStore settings.ConfigStore, secretStore settings.SecretStore) error {
	if seed := strings.TrimSpace(cfg.SeedEndpointURL); seed != "" {
		current, err := configStore.EndpointURL(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			if err := configStore.SetEndpointURL(ctx, seed); err != nil {
				return err
			}
		}
	}

	if seed := strings.TrimSpace(cfg.SeedPackages); seed != "" {
		current, err := configStore.FilterPackages(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			if err := configStore.SetFilterPackages(ctx, seed); err != nil {
				return err
			}
		}
	}

	if seed := strings.TrimSpace(cfg.SeedAPIKey); seed != "" {
		current, err := secretStore.APIKey(ctx)
		if err != nil {
			return err
		}
		if current == "" {
			if err := secretStore.SetAPIKey(ctx, seed); err != nil {
				return err
			}
		}
	}

	return nil
}
