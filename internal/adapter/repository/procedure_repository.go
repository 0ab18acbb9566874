package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

type procedureRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewProcedureRepository creates a new procedure repository
func NewProcedureRepository(db *gorm.DB, logger *zap.Logger) repository.ProcedureRepository {
	return &procedureRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the procedure row only; documents and client are written by their repositories
func (r *procedureRepository) Create(ctx context.Context, procedure *model.Procedure) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(procedure).Error
	if err != nil {
		r.logger.Error("Failed to create procedure",
			zap.String("procedure_id", procedure.ID),
			zap.String("user_id", procedure.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create procedure: %w", err)
	}
	return nil
}

func (r *procedureRepository) GetByID(ctx context.Context, id string) (*model.Procedure, error) {
	var procedure model.Procedure
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("id = ?", id).
		First(&procedure).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get procedure",
			zap.String("procedure_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get procedure: %w", err)
	}
	return &procedure, nil
}

func (r *procedureRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).
		Model(&model.Procedure{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		r.logger.Error("Failed to update procedure",
			zap.String("procedure_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to update procedure: %w", err)
	}
	return nil
}

func (r *procedureRepository) ForceStatus(ctx context.Context, id string, update repository.ProcedureStatusUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":         update.Status,
		"payment_status": update.PaymentStatus,
	}
	if update.PaymentID != nil {
		updates["payment_id"] = *update.PaymentID
	}

	result := r.db.WithContext(ctx).
		Model(&model.Procedure{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		r.logger.Error("Failed to force procedure status",
			zap.String("procedure_id", id),
			zap.String("status", string(update.Status)),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to force procedure status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Updates with unchanged values still count on postgres but not on every
		// driver, so confirm the row exists before reporting it missing.
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Procedure{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, fmt.Errorf("failed to check procedure: %w", err)
		}
		return count > 0, nil
	}
	return true, nil
}
