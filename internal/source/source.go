package source

import (
	"context"

	"github.com/notifylab/notify-agent/internal/domain"
)

// EventHandler handles one captured notification event.
type EventHandler func(ctx context.Context, event domain.NotificationEvent) error

// EventSource feeds raw notification events into the capture pipeline.
// Consume blocks until the context is cancelled.
type EventSource interface {
	Consume(ctx context.Context, handler EventHandler) error
	Close() error
}
