package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AllanBUSI/Fairpay-sub000/internal/adapter/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	domainRepo "github.com/AllanBUSI/Fairpay-sub000/internal/domain/repository"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/database"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/provider"
	"github.com/AllanBUSI/Fairpay-sub000/internal/usecase"
)

// App holds the wired service graph shared by the server and the operator CLI
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Repos  *database.Repositories
	Ledger domainRepo.EventLedger

	Verifier   *usecase.WebhookVerifier
	Reconciler *usecase.Reconciler
	Router     *usecase.WebhookRouter
	Retry      *usecase.RetryPaymentService
	Checkout   *usecase.CheckoutService

	redis *redis.Client
}

// New connects storage, builds the payment gateway and wires the use cases
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Repos:  database.NewRepositories(db, log),
	}

	if err := a.setupLedger(ctx); err != nil {
		a.Close()
		return nil, err
	}

	gateway, err := provider.NewFactory(&cfg.Service, log, metrics.SetBreakerState).Gateway()
	if err != nil {
		a.Close()
		return nil, err
	}

	dossierPrice, err := cfg.Pricing.DossierPrice()
	if err != nil {
		a.Close()
		return nil, err
	}
	injonctionPrice, err := cfg.Pricing.InjonctionPrice()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Verifier = usecase.NewWebhookVerifier(cfg.Service.StripeWebhookSecret)
	a.Reconciler = usecase.NewReconciler(&a.Repos.Repositories, a.Repos.Tx, gateway, usecase.ReconcilerConfig{
		SubscriptionPriceID: cfg.Service.SubscriptionPriceID,
	}, log.Named("reconciler"))
	a.Router = usecase.NewWebhookRouter(a.Reconciler, a.Ledger, log.Named("webhook"))
	a.Retry = usecase.NewRetryPaymentService(&a.Repos.Repositories, gateway, log.Named("retry"))
	a.Checkout = usecase.NewCheckoutService(&a.Repos.Repositories, gateway, usecase.CheckoutConfig{
		Currency:        cfg.Pricing.Currency,
		DossierPrice:    dossierPrice,
		InjonctionPrice: injonctionPrice,
		ClientURL:       cfg.Service.ClientURL,
	}, log.Named("checkout"))

	return a, nil
}

func (a *App) setupLedger(ctx context.Context) error {
	switch a.Config.Ledger.Backend {
	case config.LedgerDatabase, "":
		a.Ledger = a.Repos.Webhook
	case config.LedgerRedis:
		client, err := database.NewRedisClient(ctx, &a.Config.Redis, a.Logger)
		if err != nil {
			return err
		}
		a.redis = client
		a.Ledger = repository.NewRedisEventLedger(client, a.Config.Ledger.TTL, a.Logger.Named("ledger"))
	case config.LedgerNone:
		a.Logger.Warn("Webhook event ledger disabled, redeliveries rely on state guards only")
	default:
		return fmt.Errorf("unknown ledger backend %q", a.Config.Ledger.Backend)
	}
	a.Logger.Info("Webhook event ledger configured", zap.String("backend", string(a.Config.Ledger.Backend)))
	return nil
}

// Replayable returns the database ledger when it is the active one
func (a *App) Replayable() (domainRepo.ReplayableLedger, bool) {
	ledger, ok := a.Ledger.(domainRepo.ReplayableLedger)
	return ledger, ok
}

// Close releases storage connections
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}
	if err := database.Close(a.DB, a.Logger); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}
}
