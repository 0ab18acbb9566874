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

type clientRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB, logger *zap.Logger) repository.ClientRepository {
	return &clientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		r.logger.Error("Failed to create client",
			zap.String("user_id", client.UserID),
			zap.String("siret", client.Siret),
			zap.Error(err))
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get client",
			zap.String("client_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) FindByUserAndSiret(ctx context.Context, userID, siret string) (*model.Client, error) {
	var client model.Client
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND siret = ?", userID, siret).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find client by siret",
			zap.String("user_id", userID),
			zap.String("siret", siret),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		r.logger.Error("Failed to update client",
			zap.String("client_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}
