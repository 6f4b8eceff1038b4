package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/notifylab/notify-agent/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormConfigStore persists settings in the agent_settings table.
type GormConfigStore struct {
	db *gorm.DB
}

func NewGormConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{db: db}
}

func (s *GormConfigStore) get(ctx context.Context, key string) (string, error) {
	var model repository.SettingModel
	err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Value, nil
}

func (s *GormConfigStore) set(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&repository.SettingModel{Key: key, Value: value}).Error
}

func (s *GormConfigStore) getBool(ctx context.Context, key string, fallback bool) (bool, error) {
	value, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, nil
	}
	return parsed, nil
}

func (s *GormConfigStore) EndpointURL(ctx context.Context) (string, error) {
	return s.get(ctx, KeyEndpointURL)
}

func (s *GormConfigStore) SetEndpointURL(ctx context.Context, url string) error {
	return s.set(ctx, KeyEndpointURL, url)
}

func (s *GormConfigStore) FilterPackages(ctx context.Context) (string, error) {
	return s.get(ctx, KeyFilterPackages)
}

func (s *GormConfigStore) SetFilterPackages(ctx context.Context, packages string) error {
	return s.set(ctx, KeyFilterPackages, packages)
}

func (s *GormConfigStore) ForwardAllApps(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyForwardAllApps, false)
}

func (s *GormConfigStore) SetForwardAllApps(ctx context.Context, enabled bool) error {
	return s.set(ctx, KeyForwardAllApps, strconv.FormatBool(enabled))
}

func (s *GormConfigStore) DeviceID(ctx context.Context) (string, error) {
	return s.get(ctx, KeyDeviceID)
}

func (s *GormConfigStore) SetDeviceID(ctx context.Context, id string) error {
	return s.set(ctx, KeyDeviceID, id)
}

func (s *GormConfigStore) ServiceEnabled(ctx context.Context) (bool, error) {
	return s.getBool(ctx, KeyServiceEnabled, true)
}

func (s *GormConfigStore) SetServiceEnabled(ctx context.Context, enabled bool) error {
	return s.set(ctx, KeyServiceEnabled, strconv.FormatBool(enabled))
}

// GormSecretStore persists the API key in the agent_secrets table. At-rest
// hardening belongs to the platform keystore; transport security is TLS.
type GormSecretStore struct {
	db *gorm.DB
}

func NewGormSecretStore(db *gorm.DB) *GormSecretStore {
	return &GormSecretStore{db: db}
}

func (s *GormSecretStore) APIKey(ctx context.Context) (string, error) {
	var model repository.SecretModel
	err := s.db.WithContext(ctx).First(&model, "key = ?", KeyAPIKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Value, nil
}

func (s *GormSecretStore) SetAPIKey(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&repository.SecretModel{Key: KeyAPIKey, Value: key}).Error
}
