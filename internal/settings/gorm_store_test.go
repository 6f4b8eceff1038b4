package settings

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/notifylab/notify-agent/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&repository.SettingModel{}, &repository.SecretModel{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func TestConfigStoreDefaults(t *testing.T) {
	t.Parallel()

	store := NewGormConfigStore(newTestDB(t))
	ctx := context.Background()

	url, err := store.EndpointURL(ctx)
	if err != nil {
		t.Fatalf("EndpointURL() error = %v", err)
	}
	if url != "" {
		t.Errorf("EndpointURL() = %q, want empty", url)
	}

	forwardAll, err := store.ForwardAllApps(ctx)
	if err != nil {
		t.Fatalf("ForwardAllApps() error = %v", err)
	}
	if forwardAll {
		t.Error("ForwardAllApps() = true, want false default")
	}

	enabled, err := store.ServiceEnabled(ctx)
	if err != nil {
		t.Fatalf("ServiceEnabled() error = %v", err)
	}
	if !enabled {
		t.Error("ServiceEnabled() = false, want true default")
	}
}

func TestConfigStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewGormConfigStore(newTestDB(t))
	ctx := context.Background()

	if err := store.SetEndpointURL(ctx, "https://example.com/hook"); err != nil {
		t.Fatalf("SetEndpointURL() error = %v", err)
	}
	if err := store.SetEndpointURL(ctx, "https://example.com/hook2"); err != nil {
		t.Fatalf("SetEndpointURL() overwrite error = %v", err)
	}
	url, err := store.EndpointURL(ctx)
	if err != nil {
		t.Fatalf("EndpointURL() error = %v", err)
	}
	if url != "https://example.com/hook2" {
		t.Errorf("EndpointURL() = %q, want overwritten value", url)
	}

	if err := store.SetForwardAllApps(ctx, true); err != nil {
		t.Fatalf("SetForwardAllApps() error = %v", err)
	}
	forwardAll, err := store.ForwardAllApps(ctx)
	if err != nil {
		t.Fatalf("ForwardAllApps() error = %v", err)
	}
	if !forwardAll {
		t.Error("ForwardAllApps() = false, want true")
	}

	if err := store.SetFilterPackages(ctx, "com.bank.app, com.shop.app"); err != nil {
		t.Fatalf("SetFilterPackages() error = %v", err)
	}
	packages, err := store.FilterPackages(ctx)
	if err != nil {
		t.Fatalf("FilterPackages() error = %v", err)
	}
	if packages != "com.bank.app, com.shop.app" {
		t.Errorf("FilterPackages() = %q", packages)
	}
}

func TestSecretStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewGormSecretStore(newTestDB(t))
	ctx := context.Background()

	key, err := store.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "" {
		t.Errorf("APIKey() = %q, want empty", key)
	}

	if err := store.SetAPIKey(ctx, "secret-1"); err != nil {
		t.Fatalf("SetAPIKey() error = %v", err)
	}
	if err := store.SetAPIKey(ctx, "secret-2"); err != nil {
		t.Fatalf("SetAPIKey() overwrite error = %v", err)
	}

	key, err = store.APIKey(ctx)
	if err != nil {
		t.Fatalf("APIKey() error = %v", err)
	}
	if key != "secret-2" {
		t.Errorf("APIKey() = %q, want secret-2", key)
	}
}
