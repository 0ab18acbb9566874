package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	ClientURL   string `mapstructure:"client_url"`

	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	// SubscriptionPriceID is the recurring price bundled with a dossier when hasFacturation is set
	SubscriptionPriceID string `mapstructure:"subscription_price_id"`

	ProviderTimeout     time.Duration `mapstructure:"provider_timeout"`
	BreakerMaxFailures  uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenDuration time.Duration `mapstructure:"breaker_open_duration"`
}

// PricingConfig holds one-off prices in major units, as decimal strings
type PricingConfig struct {
	Currency         string `mapstructure:"currency"`
	DossierAmount    string `mapstructure:"dossier_amount"`
	InjonctionAmount string `mapstructure:"injonction_amount"`
}

func (p PricingConfig) DossierPrice() (decimal.Decimal, error) {
	return parsePrice("pricing.dossier_amount", p.DossierAmount)
}

func (p PricingConfig) InjonctionPrice() (decimal.Decimal, error) {
	return parsePrice("pricing.injonction_amount", p.InjonctionAmount)
}

func parsePrice(key, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
