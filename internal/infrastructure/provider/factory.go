package provider

import (
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	"github.com/AllanBUSI/Fairpay-sub000/internal/domain/provider"
	stripeProvider "github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/provider/stripe"
)

// Factory builds the payment gateway from service configuration
type Factory struct {
	config        *config.ServiceConfig
	logger        *zap.Logger
	onStateChange func(from, to gobreaker.State)
}

// NewFactory creates a new provider factory. onStateChange may be nil.
func NewFactory(config *config.ServiceConfig, logger *zap.Logger, onStateChange func(from, to gobreaker.State)) *Factory {
	return &Factory{
		config:        config,
		logger:        logger,
		onStateChange: onStateChange,
	}
}

// Gateway returns the configured payment gateway
func (f *Factory) Gateway() (provider.PaymentGateway, error) {
	if f.config.StripeSecretKey == "" {
		return nil, fmt.Errorf("stripe secret key not configured")
	}

	return stripeProvider.NewGateway(stripeProvider.Config{
		SecretKey:            f.config.StripeSecretKey,
		Timeout:              f.config.ProviderTimeout,
		BreakerMaxFailures:   f.config.BreakerMaxFailures,
		BreakerOpenDuration:  f.config.BreakerOpenDuration,
		OnBreakerStateChange: f.onStateChange,
	}, f.logger.Named("stripe")), nil
}
