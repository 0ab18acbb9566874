package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
			logger.Error("Failed to create extensions", zap.Error(err))
			return err
		}
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Procedure{},
		&model.Document{},
		&model.Payment{},
		&model.Subscription{},
		&model.StripeWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}
	logger.Info("GORM auto-migrations completed successfully")

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes that GORM tags cannot express
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON stripe_webhook_events (created_at) WHERE status IN ('pending', 'processing', 'failed')`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_current ON subscriptions (user_id) WHERE status IN ('ACTIVE', 'TRIALING')`,
		`CREATE INDEX IF NOT EXISTS idx_payments_open ON payments (user_id) WHERE status IN ('PENDING', 'FAILED')`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
