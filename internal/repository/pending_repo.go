package repository

import (
	"context"

	"github.com/notifylab/notify-agent/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingRepository owns the durable queue of payloads awaiting delivery.
// All operations are durable before returning.
type PendingRepository interface {
	// Insert stores an entry and assigns its id. Externally supplied ids use
	// replace-on-conflict semantics; generated ids never collide.
	Insert(ctx context.Context, p *domain.PendingDelivery) error
	// ListOrdered returns every entry in FIFO replay order (creation ascending).
	ListOrdered(ctx context.Context) ([]domain.PendingDelivery, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	// IncrementRetry bumps the retry count and records the last error text.
	IncrementRetry(ctx context.Context, id int64, lastError string) error
	Count(ctx context.Context) (int64, error)
}

type GormPendingRepo struct {
	db *gorm.DB
}

func NewGormPendingRepo(db *gorm.DB) *GormPendingRepo {
	return &GormPendingRepo{db: db}
}

func (r *GormPendingRepo) Insert(ctx context.Context, p *domain.PendingDelivery) error {
	model := pendingModelFromDomain(p)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return err
	}
	if p != nil {
		*p = *pendingModelToDomain(model)
	}
	return nil
}

func (r *GormPendingRepo) ListOrdered(ctx context.Context) ([]domain.PendingDelivery, error) {
	var models []PendingDeliveryModel
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.PendingDelivery, 0, len(models))
	for i := range models {
		entries = append(entries, *pendingModelToDomain(&models[i]))
	}

	return entries, nil
}

func (r *GormPendingRepo) DeleteByID(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Delete(&PendingDeliveryModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormPendingRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&PendingDeliveryModel{}).Error
}

func (r *GormPendingRepo) IncrementRetry(ctx context.Context, id int64, lastError string) error {
	result := r.db.WithContext(ctx).
		Model(&PendingDeliveryModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  lastError,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormPendingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PendingDeliveryModel{}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
