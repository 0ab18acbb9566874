package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

// staleProcessingAfter is how long an event may sit in processing before replay picks it up again
const staleProcessingAfter = 10 * time.Minute

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewWebhookRepository creates the database-backed event ledger
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) repository.ReplayableLedger {
	return &webhookRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Begin saves the event on first sight and flags it as processing
func (r *webhookRepository) Begin(ctx context.Context, entry repository.LedgerEntry) (bool, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		r.logger.Warn("Failed to parse event payload for ledger",
			zap.String("event_id", entry.EventID),
			zap.Error(err))
		payload = map[string]interface{}{}
	}

	var stripeCreatedAt *time.Time
	if !entry.CreatedAt.IsZero() {
		t := entry.CreatedAt
		stripeCreatedAt = &t
	}

	event := &model.StripeWebhookEvent{
		StripeEventID:   entry.EventID,
		EventType:       entry.EventType,
		Status:          model.WebhookStatusPending,
		Payload:         datatypes.JSONMap(payload),
		StripeCreatedAt: stripeCreatedAt,
	}

	// Use ON CONFLICT to handle duplicate events
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", entry.EventID),
			zap.String("event_type", entry.EventType),
			zap.Error(err))
		return false, fmt.Errorf("failed to save webhook event: %w", err)
	}

	existing, err := r.getEvent(ctx, entry.EventID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("webhook event not found after save: %s", entry.EventID)
	}
	if existing.Status == model.WebhookStatusCompleted {
		return true, nil
	}

	err = r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", entry.EventID).
		Update("status", model.WebhookStatusProcessing).Error
	if err != nil {
		r.logger.Error("Failed to mark webhook as processing",
			zap.String("event_id", entry.EventID),
			zap.Error(err))
		return false, fmt.Errorf("failed to mark webhook as processing: %w", err)
	}
	return false, nil
}

func (r *webhookRepository) getEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error) {
	var event model.StripeWebhookEvent

	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

// Complete marks a webhook event as processed
func (r *webhookRepository) Complete(ctx context.Context, eventID string) error {
	now := r.now()

	result := r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        model.WebhookStatusCompleted,
			"processed_at":  &now,
			"last_error":    nil,
			"next_retry_at": nil,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as processed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	return nil
}

// Fail records the error and schedules the next replay with exponential backoff
func (r *webhookRepository) Fail(ctx context.Context, eventID string, cause error) error {
	event, err := r.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	attempts := event.ProcessingAttempts + 1
	nextRetry := r.now().Add(RetryBackoff(attempts))
	errorMsg := cause.Error()

	result := r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":              model.WebhookStatusFailed,
			"processing_attempts": attempts,
			"last_error":          &errorMsg,
			"next_retry_at":       &nextRetry,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark webhook as failed",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark webhook as failed: %w", result.Error)
	}

	return nil
}

// RetryBackoff is 5·2^attempts minutes, capped at 24 hours
func RetryBackoff(attempts int) time.Duration {
	if attempts > 10 {
		attempts = 10
	}
	retryMinutes := 5 * (1 << attempts)
	if retryMinutes > 1440 {
		retryMinutes = 1440
	}
	return time.Duration(retryMinutes) * time.Minute
}

// ListReplayable returns failed or pending events that are due, and processing
// events that have been stuck for a while, oldest first.
func (r *webhookRepository) ListReplayable(ctx context.Context, limit int) ([]*model.StripeWebhookEvent, error) {
	var events []*model.StripeWebhookEvent
	now := r.now()

	query := r.db.WithContext(ctx).
		Where("(status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)) OR (status = ? AND updated_at <= ?)",
			model.WebhookStatusPending,
			model.WebhookStatusFailed,
			now,
			model.WebhookStatusProcessing,
			now.Add(-staleProcessingAfter)).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&events).Error; err != nil {
		r.logger.Error("Failed to get replayable webhook events",
			zap.Error(err))
		return nil, fmt.Errorf("failed to get replayable webhook events: %w", err)
	}

	return events, nil
}
