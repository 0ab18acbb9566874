package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/adapter/repository"
	domainRepo "github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	domainRepo.Repositories
	Webhook domainRepo.ReplayableLedger
	Tx      domainRepo.Transactor
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Repositories: *newDomainRepositories(db, logger),
		Webhook:      repository.NewWebhookRepository(db, logger),
		Tx:           &gormTransactor{db: db, logger: logger},
	}
}

func newDomainRepositories(db *gorm.DB, logger *zap.Logger) *domainRepo.Repositories {
	return &domainRepo.Repositories{
		User:         repository.NewUserRepository(db, logger),
		Client:       repository.NewClientRepository(db, logger),
		Document:     repository.NewDocumentRepository(db, logger),
		Procedure:    repository.NewProcedureRepository(db, logger),
		Payment:      repository.NewPaymentRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
	}
}

type gormTransactor struct {
	db     *gorm.DB
	logger *zap.Logger
}

// WithinTransaction binds a fresh set of repositories to one gorm transaction
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *domainRepo.Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newDomainRepositories(tx, t.logger))
	})
}
