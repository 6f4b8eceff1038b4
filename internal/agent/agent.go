// Package agent runs the capture pipeline: every incoming notification event
// is filtered, turned into a payload, and handed to the dispatcher.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/notifylab/notify-agent/internal/capture"
	"github.com/notifylab/notify-agent/internal/dispatch"
	"github.com/notifylab/notify-agent/internal/domain"
	"github.com/notifylab/notify-agent/internal/observability"
	"github.com/notifylab/notify-agent/internal/settings"
	"github.com/notifylab/notify-agent/internal/source"
	"go.uber.org/zap"
)

// Deliverer sends one payload or queues it durably.
type Deliverer interface {
	Deliver(ctx context.Context, payload domain.Payload, endpoint, apiKey string) (dispatch.Outcome, error)
}

// DeviceIDProvider yields the stable per-install device identifier.
type DeviceIDProvider interface {
	DeviceID(ctx context.Context) (string, error)
}

// Agent applies the user's forwarding rules to each event and sends the
// survivors. Settings are read per event so UI changes apply to the very
// next notification without a restart.
type Agent struct {
	config     settings.ConfigStore
	secrets    settings.SecretStore
	identity   DeviceIDProvider
	builder    *capture.Builder
	sender     Deliverer
	logger     *zap.Logger
	metrics    *observability.Metrics
	ownPackage string
}

func New(
	config settings.ConfigStore,
	secrets settings.SecretStore,
	identity DeviceIDProvider,
	builder *capture.Builder,
	sender Deliverer,
	ownPackage string,
	logger *zap.Logger,
) (*Agent, error) {
	if config == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("secret store is required")
	}
	if identity == nil {
		return nil, fmt.Errorf("device id provider is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("payload builder is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("deliverer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		config:     config,
		secrets:    secrets,
		identity:   identity,
		builder:    builder,
		sender:     sender,
		logger:     logger,
		ownPackage: ownPackage,
	}, nil
}

func (a *Agent) SetMetrics(metrics *observability.Metrics) {
	if a == nil {
		return
	}
	a.metrics = metrics
}

// Run consumes the event source until the context is cancelled.
func (a *Agent) Run(ctx context.Context, events source.EventSource) error {
	if events == nil {
		return fmt.Errorf("event source is required")
	}
	return events.Consume(ctx, a.HandleEvent)
}

// HandleEvent processes one event end to end. Errors are returned for the
// caller's diagnostics but the pipeline treats every event independently.
func (a *Agent) HandleEvent(ctx context.Context, event domain.NotificationEvent) error {
	enabled, err := a.config.ServiceEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to read service flag: %w", err)
	}
	if !enabled {
		a.metrics.IncEventCaptured("disabled")
		return nil
	}

	cfg, err := a.filterConfig(ctx)
	if err != nil {
		return err
	}

	if !capture.ShouldForward(event, cfg) {
		a.metrics.IncEventCaptured("filtered")
		a.logger.Debug("event filtered",
			zap.String("packageName", event.PackageName),
			zap.Bool("ongoing", event.Ongoing),
		)
		return nil
	}
	a.metrics.IncEventCaptured("accepted")

	deviceID, err := a.identity.DeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve device id: %w", err)
	}

	payload, err := a.builder.Build(event, deviceID)
	if err != nil {
		a.logger.Warn("failed to build payload",
			zap.String("packageName", event.PackageName),
			zap.Error(err),
		)
		return err
	}

	endpoint, err := a.config.EndpointURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to read endpoint: %w", err)
	}
	apiKey, err := a.secrets.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to read api key: %w", err)
	}

	outcome, err := a.sender.Deliver(ctx, payload, endpoint, apiKey)
	if err != nil {
		if errors.Is(err, domain.ErrConfig) {
			// Nothing to deliver to yet; the event is logged and dropped.
			a.logger.Debug("delivery skipped, endpoint not configured")
			return nil
		}
		return err
	}

	a.logger.Debug("event processed",
		zap.String("packageName", event.PackageName),
		zap.String("status", string(outcome.Status)),
		zap.Int("httpStatus", outcome.HTTPStatus),
	)
	return nil
}

func (a *Agent) filterConfig(ctx context.Context) (capture.FilterConfig, error) {
	forwardAll, err := a.config.ForwardAllApps(ctx)
	if err != nil {
		return capture.FilterConfig{}, fmt.Errorf("failed to read forward-all flag: %w", err)
	}
	packages, err := a.config.FilterPackages(ctx)
	if err != nil {
		return capture.FilterConfig{}, fmt.Errorf("failed to read package list: %w", err)
	}

	return capture.FilterConfig{
		OwnPackage:  a.ownPackage,
		ForwardAll:  forwardAll,
		PackageList: packages,
	}, nil
}
