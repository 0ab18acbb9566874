package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/AllanBUSI/Fairpay-sub000/pkg/config"
	"github.com/AllanBUSI/Fairpay-sub000/pkg/logger"
)

// ServiceName is used for the config file name and the env prefix (FAIRPAY_*)
const ServiceName = "fairpay"

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

var defaults = map[string]interface{}{
	"service.name":                  ServiceName,
	"service.environment":           "development",
	"service.client_url":            "http://localhost:3000",
	"service.provider_timeout":      "10s",
	"service.breaker_max_failures":  5,
	"service.breaker_open_duration": "30s",
	"pricing.currency":              "eur",
	"pricing.dossier_amount":        "49.00",
	"pricing.injonction_amount":     "89.00",
	"database.driver":               "postgres",
	"database.host":                 "localhost",
	"database.port":                 5432,
	"database.name":                 "fairpay",
	"database.user":                 "postgres",
	"database.ssl_mode":             "disable",
	"database.max_open_conns":       20,
	"database.max_idle_conns":       5,
	"database.conn_max_lifetime":    "30m",
	"database.log_level":            "warn",
	"database.slow_threshold":       "500ms",
	"ledger.backend":                "database",
	"ledger.ttl":                    "72h",
	"redis.addr":                    "localhost:6379",
	"server.http.host":              "0.0.0.0",
	"server.http.port":              8080,
	"server.grpc.host":              "0.0.0.0",
	"server.grpc.port":              9090,
	"log.level":                     "info",
	"log.format":                    "json",
	"log.output":                    "stdout",
}

// LoadConfig reads configs/{APP_ENV}/fairpay.yaml with FAIRPAY_* env overrides
func LoadConfig() (*Config, error) {
	raw, err := pkgconfig.Load(ServiceName, defaults)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := raw.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Service.StripeSecretKey == "" {
		return fmt.Errorf("service.stripe_secret_key is required")
	}
	if c.Service.StripeWebhookSecret == "" {
		return fmt.Errorf("service.stripe_webhook_secret is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if _, err := c.Pricing.DossierPrice(); err != nil {
		return err
	}
	if _, err := c.Pricing.InjonctionPrice(); err != nil {
		return err
	}
	if c.Ledger.Backend != LedgerDatabase && c.Ledger.Backend != LedgerRedis && c.Ledger.Backend != LedgerNone {
		return fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend)
	}
	return nil
}

type LedgerBackend string

const (
	LedgerDatabase LedgerBackend = "database"
	LedgerRedis    LedgerBackend = "redis"
	LedgerNone     LedgerBackend = "none"
)

// LedgerConfig selects where processed webhook event ids are recorded
type LedgerConfig struct {
	Backend LedgerBackend `mapstructure:"backend"`
	// TTL applies to the redis backend only
	TTL time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}
