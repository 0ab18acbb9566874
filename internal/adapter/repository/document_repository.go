package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

type documentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB, logger *zap.Logger) repository.DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *documentRepository) ListByProcedureID(ctx context.Context, procedureID string) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.WithContext(ctx).
		Where("procedure_id = ?", procedureID).
		Order("created_at ASC").
		Find(&docs).Error
	if err != nil {
		r.logger.Error("Failed to list documents",
			zap.String("procedure_id", procedureID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ReplaceForProcedure deletes and inserts in one transaction, or in a savepoint
// when the repository is already bound to a transaction.
func (r *documentRepository) ReplaceForProcedure(ctx context.Context, procedureID string, docs []model.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("procedure_id = ?", procedureID).Delete(&model.Document{}).Error; err != nil {
			r.logger.Error("Failed to delete documents",
				zap.String("procedure_id", procedureID),
				zap.Error(err))
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		if err := tx.Create(&docs).Error; err != nil {
			r.logger.Error("Failed to create documents",
				zap.String("procedure_id", procedureID),
				zap.Int("count", len(docs)),
				zap.Error(err))
			return fmt.Errorf("failed to create documents: %w", err)
		}
		return nil
	})
}
