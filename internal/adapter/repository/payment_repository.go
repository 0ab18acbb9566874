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

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("payment_id", payment.ID),
			zap.String("user_id", payment.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	return r.first(ctx, "id", id)
}

func (r *paymentRepository) GetByStripePaymentIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	if intentID == "" {
		return nil, nil
	}
	return r.first(ctx, "stripe_payment_intent_id", intentID)
}

func (r *paymentRepository) GetByStripeCheckoutSessionID(ctx context.Context, sessionID string) (*model.Payment, error) {
	if sessionID == "" {
		return nil, nil
	}
	return r.first(ctx, "stripe_checkout_session_id", sessionID)
}

func (r *paymentRepository) first(ctx context.Context, column, value string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where(column+" = ?", value).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment",
			zap.String(column, value),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		r.logger.Error("Failed to update payment",
			zap.String("payment_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return nil
}
