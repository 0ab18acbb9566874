package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

type userRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) repository.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.Error("Failed to create user",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.first(ctx, "stripe_customer_id = ?", customerID)
}

func (r *userRepository) first(ctx context.Context, query string, arg string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user",
			zap.String("query", query),
			zap.String("value", arg),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return r.update(ctx, userID, "stripe_customer_id", &customerID)
}

func (r *userRepository) SetStripeSubscriptionID(ctx context.Context, userID string, subscriptionID *string) error {
	return r.update(ctx, userID, "stripe_subscription_id", subscriptionID)
}

func (r *userRepository) update(ctx context.Context, userID, column string, value *string) error {
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update(column, value).Error
	if err != nil {
		r.logger.Error("Failed to update user",
			zap.String("user_id", userID),
			zap.String("column", column),
			zap.Error(err))
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return nil
}
