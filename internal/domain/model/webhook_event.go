package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
)

// WebhookStatus represents the processing status of a webhook
type WebhookStatus string

const (
	WebhookStatusPending    WebhookStatus = "pending"
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusCompleted  WebhookStatus = "completed"
	WebhookStatusFailed     WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// StripeWebhookEvent records a received provider event and its processing outcome
type StripeWebhookEvent struct {
	ID                 int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	StripeEventID      string            `gorm:"uniqueIndex;not null;size:255" json:"stripe_event_id"`
	EventType          string            `gorm:"not null;size:100;index" json:"event_type"`
	Status             WebhookStatus     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProcessedAt        *time.Time        `json:"processed_at,omitempty"`
	Payload            datatypes.JSONMap `gorm:"not null" json:"payload"`
	ProcessingAttempts int               `gorm:"not null;default:0" json:"processing_attempts"`
	LastError          *string           `json:"last_error,omitempty"`
	NextRetryAt        *time.Time        `gorm:"index" json:"next_retry_at,omitempty"`
	StripeCreatedAt    *time.Time        `json:"stripe_created_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (StripeWebhookEvent) TableName() string {
	return "stripe_webhook_events"
}
