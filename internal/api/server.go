// Package api serves the local diagnostics surface: health probes, the
// delivery log, the pending queue, settings, and Prometheus metrics. It
// binds to loopback; nothing here is meant to face the network.
package api

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/notifylab/notify-agent/internal/observability"
	"github.com/notifylab/notify-agent/internal/repository"
	"github.com/notifylab/notify-agent/internal/settings"
	"github.com/notifylab/notify-agent/internal/transport"
	"go.uber.org/zap"
)

const readTimeout = 5 * time.Second

// Deps carries everything the diagnostics routes need.
type Deps struct {
	SQLDB   *sql.DB
	Queue   repository.PendingRepository
	Logs    repository.LogRepository
	Config  settings.ConfigStore
	Secrets settings.SecretStore
	Sender  TestSender
	Sweeps  SweepRequester
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewServer builds the fiber app with every diagnostics route registered.
func NewServer(deps Deps) (*fiber.App, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(deps.Logger),
		DisableStartupMessage: true,
		ReadTimeout:           readTimeout,
	})

	if deps.Metrics != nil {
		app.Use(deps.Metrics.HTTPMiddleware())
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	RegisterHealthRoutes(app, deps.SQLDB)

	if err := RegisterDiagnosticsRoutes(app, deps.Queue, deps.Logs, deps.Sender, deps.Sweeps, deps.Config, deps.Secrets); err != nil {
		return nil, fmt.Errorf("failed to register diagnostics routes: %w", err)
	}
	if err := RegisterSettingsRoutes(app, deps.Config, deps.Secrets); err != nil {
		return nil, fmt.Errorf("failed to register settings routes: %w", err)
	}

	return app, nil
}
