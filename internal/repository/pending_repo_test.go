package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/notifylab/notify-agent/internal/domain"
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
	// A single connection keeps every query on the same :memory: database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&PendingDeliveryModel{},
		&DeliveryLogModel{},
		&SettingModel{},
		&SecretModel{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func TestPendingRepoInsertAssignsID(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))
	ctx := context.Background()

	entry := &domain.PendingDelivery{
		JSONPayload: `{"deviceId":"d1"}`,
		EndpointURL: "https://example.com/hook",
		CreatedAt:   time.Now().UTC(),
	}

	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("Insert() did not assign an id")
	}
	if entry.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", entry.RetryCount)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestPendingRepoListOrderedFIFO(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: base}
	b := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: base.Add(time.Minute)}

	if err := repo.Insert(ctx, a); err != nil {
		t.Fatalf("Insert(a) error = %v", err)
	}
	if err := repo.Insert(ctx, b); err != nil {
		t.Fatalf("Insert(b) error = %v", err)
	}

	entries, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("ListOrdered() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].ID != a.ID || entries[1].ID != b.ID {
		t.Errorf("order = [%d %d], want [%d %d]", entries[0].ID, entries[1].ID, a.ID, b.ID)
	}
}

func TestPendingRepoInsertReplaceOnConflict(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))
	ctx := context.Background()

	entry := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: time.Now().UTC()}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	replacement := &domain.PendingDelivery{
		ID:          entry.ID,
		JSONPayload: `{"replaced":true}`,
		EndpointURL: "https://x/z",
		CreatedAt:   entry.CreatedAt,
	}
	if err := repo.Insert(ctx, replacement); err != nil {
		t.Fatalf("Insert() replace error = %v", err)
	}

	entries, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("ListOrdered() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].EndpointURL != "https://x/z" {
		t.Errorf("EndpointURL = %q, want replaced value", entries[0].EndpointURL)
	}
}

func TestPendingRepoIncrementRetry(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))
	ctx := context.Background()

	entry := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: time.Now().UTC()}
	if err := repo.Insert(ctx, entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementRetry(ctx, entry.ID, "HTTP 500"); err != nil {
			t.Fatalf("IncrementRetry() error = %v", err)
		}
	}

	entries, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("ListOrdered() error = %v", err)
	}
	if entries[0].RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", entries[0].RetryCount)
	}
	if entries[0].LastError == nil || *entries[0].LastError != "HTTP 500" {
		t.Errorf("LastError = %v, want HTTP 500", entries[0].LastError)
	}
}

func TestPendingRepoIncrementRetryMissing(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))

	err := repo.IncrementRetry(context.Background(), 999, "HTTP 500")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestPendingRepoDelete(t *testing.T) {
	t.Parallel()

	repo := NewGormPendingRepo(newTestDB(t))
	ctx := context.Background()

	a := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: time.Now().UTC()}
	b := &domain.PendingDelivery{JSONPayload: "{}", EndpointURL: "https://x/y", CreatedAt: time.Now().UTC()}
	if err := repo.Insert(ctx, a); err != nil {
		t.Fatalf("Insert(a) error = %v", err)
	}
	if err := repo.Insert(ctx, b); err != nil {
		t.Fatalf("Insert(b) error = %v", err)
	}

	if err := repo.DeleteByID(ctx, a.ID); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if err := repo.DeleteByID(ctx, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}
