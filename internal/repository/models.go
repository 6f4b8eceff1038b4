package repository

import (
	"time"

	"github.com/notifylab/notify-agent/internal/domain"
)

// PendingDeliveryModel is the persistence model for pending_deliveries.
type PendingDeliveryModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	JSONPayload string    `gorm:"column:json_payload;type:text;not null"`
	EndpointURL string    `gorm:"column:endpoint_url;type:text;not null"`
	APIKey      *string   `gorm:"column:api_key;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
	RetryCount  int       `gorm:"column:retry_count;not null;default:0"`
	LastError   *string   `gorm:"column:last_error;type:text"`
}

func (PendingDeliveryModel) TableName() string {
	return "pending_deliveries"
}

// DeliveryLogModel is the persistence model for delivery_logs.
type DeliveryLogModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time      `gorm:"not null"`
	Message   string         `gorm:"type:text;not null"`
	Type      domain.LogType `gorm:"type:varchar(10);not null"`
	Details   *string        `gorm:"type:text"`
}

func (DeliveryLogModel) TableName() string {
	return "delivery_logs"
}

// SettingModel is the persistence model for agent_settings key-value pairs.
type SettingModel struct {
	Key   string `gorm:"primaryKey;type:varchar(64)"`
	Value string `gorm:"type:text;not null"`
}

func (SettingModel) TableName() string {
	return "agent_settings"
}

// SecretModel is the persistence model for agent_secrets key-value pairs.
type SecretModel struct {
	Key   string `gorm:"primaryKey;type:varchar(64)"`
	Value string `gorm:"type:text;not null"`
}

func (SecretModel) TableName() string {
	return "agent_secrets"
}

func pendingModelFromDomain(p *domain.PendingDelivery) *PendingDeliveryModel {
	if p == nil {
		return nil
	}

	return &PendingDeliveryModel{
		ID:          p.ID,
		JSONPayload: p.JSONPayload,
		EndpointURL: p.EndpointURL,
		APIKey:      p.APIKey,
		CreatedAt:   p.CreatedAt,
		RetryCount:  p.RetryCount,
		LastError:   p.LastError,
	}
}

func pendingModelToDomain(m *PendingDeliveryModel) *domain.PendingDelivery {
	if m == nil {
		return nil
	}

	return &domain.PendingDelivery{
		ID:          m.ID,
		JSONPayload: m.JSONPayload,
		EndpointURL: m.EndpointURL,
		APIKey:      m.APIKey,
		CreatedAt:   m.CreatedAt,
		RetryCount:  m.RetryCount,
		LastError:   m.LastError,
	}
}

func logModelFromDomain(e *domain.LogEntry) *DeliveryLogModel {
	if e == nil {
		return nil
	}

	return &DeliveryLogModel{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Message:   e.Message,
		Type:      e.Type,
		Details:   e.Details,
	}
}

func logModelToDomain(m *DeliveryLogModel) *domain.LogEntry {
	if m == nil {
		return nil
	}

	return &domain.LogEntry{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Message:   m.Message,
		Type:      m.Type,
		Details:   m.Details,
	}
}
