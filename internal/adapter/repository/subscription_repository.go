package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, subscription *model.Subscription) error {
	if err := r.db.WithContext(ctx).Create(subscription).Error; err != nil {
		r.logger.Error("Failed to save subscription",
			zap.String("subscription_id", subscription.StripeSubscriptionID),
			zap.String("user_id", subscription.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// GetByStripeSubscriptionID retrieves subscription by Stripe subscription ID
func (r *subscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, subscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("stripe_subscription_id = ?", subscriptionID).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by ID",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		r.logger.Error("Failed to update subscription",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) HasCurrentForUser(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ? AND status IN ?", userID,
			[]model.SubscriptionStatus{model.SubscriptionStatusActive, model.SubscriptionStatusTrialing}).
		Count(&count).Error
	if err != nil {
		r.logger.Error("Failed to count current subscriptions",
			zap.String("user_id", userID),
			zap.Error(err))
		return false, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count > 0, nil
}

func (r *subscriptionRepository) CancelByStripeSubscriptionID(ctx context.Context, subscriptionID string, canceledAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Updates(map[string]interface{}{
			"status":      model.SubscriptionStatusCanceled,
			"canceled_at": canceledAt,
		})
	if result.Error != nil {
		r.logger.Error("Failed to cancel subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to cancel subscription: %w", result.Error)
	}
	return result.RowsAffected, nil
}
