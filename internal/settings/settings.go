// Package settings holds the configuration and secret surfaces the core
// consumes. The UI owns these values; the agent reads them per event and
// writes only the device id and seeded defaults.
package settings

import "context"

// Setting keys in the plain configuration store.
const (
	KeyEndpointURL    = "endpoint_url"
	KeyFilterPackages = "filter_packages"
	KeyForwardAllApps = "forward_all_apps"
	KeyDeviceID       = "device_id"
	KeyServiceEnabled = "service_enabled"
)

// KeyAPIKey is the only key in the secret store.
const KeyAPIKey = "api_key"

// ConfigStore is the plain key-value configuration surface. Missing keys
// read as zero values, never as errors.
type ConfigStore interface {
	EndpointURL(ctx context.Context) (string, error)
	SetEndpointURL(ctx context.Context, url string) error

	FilterPackages(ctx context.Context) (string, error)
	SetFilterPackages(ctx context.Context, packages string) error

	ForwardAllApps(ctx context.Context) (bool, error)
	SetForwardAllApps(ctx context.Context, enabled bool) error

	DeviceID(ctx context.Context) (string, error)
	SetDeviceID(ctx context.Context, id string) error

	ServiceEnabled(ctx context.Context) (bool, error)
	SetServiceEnabled(ctx context.Context, enabled bool) error
}

// SecretStore holds the API key. Kept separate from ConfigStore so a
// hardened backend can be swapped in without touching core logic.
type SecretStore interface {
	APIKey(ctx context.Context) (string, error)
	SetAPIKey(ctx context.Context, key string) error
}
