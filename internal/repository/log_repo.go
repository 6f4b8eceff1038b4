package repository

import (
	"context"

	"github.com/notifylab/notify-agent/internal/domain"
	"gorm.io/gorm"
)

// LogRepository stores user-visible diagnostic entries. Insertion prunes the
// store down to the retention window; it never affects delivery correctness.
type LogRepository interface {
	Insert(ctx context.Context, e *domain.LogEntry) error
	// Recent returns the newest entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.LogEntry, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type GormLogRepo struct {
	db        *gorm.DB
	retention int
}

func NewGormLogRepo(db *gorm.DB) *GormLogRepo {
	return &GormLogRepo{db: db, retention: domain.LogRetention}
}

func (r *GormLogRepo) Insert(ctx context.Context, e *domain.LogEntry) error {
	model := logModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		*e = *logModelToDomain(model)
	}

	return r.prune(ctx)
}

func (r *GormLogRepo) prune(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM delivery_logs WHERE id NOT IN
			(SELECT id FROM delivery_logs ORDER BY timestamp DESC, id DESC LIMIT ?)`,
		r.retention,
	).Error
}

func (r *GormLogRepo) Recent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit < 1 || limit > r.retention {
		limit = r.retention
	}

	var models []DeliveryLogModel
	err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LogEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *logModelToDomain(&models[i]))
	}

	return entries, nil
}

func (r *GormLogRepo) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&DeliveryLogModel{}).Error
}

func (r *GormLogRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&DeliveryLogModel{}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
