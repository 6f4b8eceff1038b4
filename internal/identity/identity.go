package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/notifylab/notify-agent/internal/settings"
)

// Provider hands out the device's stable identity. The UUID is created at
// most once and persisted; concurrent first reads are serialized so two
// callers can never observe different identities.
type Provider struct {
	store settings.ConfigStore

	mu     sync.Mutex
	cached string
}

func NewProvider(store settings.ConfigStore) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("config store is required")
	}
	return &Provider{store: store}, nil
}

// DeviceID returns the persisted identity, generating it on first use.
func (p *Provider) DeviceID(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	// Re-read under the lock: another process may have written it already.
	id, err := p.store.DeviceID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if id != "" {
		p.cached = id
		return id, nil
	}

	id = uuid.NewString()
	if err := p.store.SetDeviceID(ctx, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	p.cached = id

	return id, nil
}
