package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/karolberezicki/ActualFoundation/pkg/config"
	"github.com/karolberezicki/ActualFoundation/pkg/database"
)

// Config holds all configuration for the checkout session service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CHECKOUT_HTTP_PORT" envDefault:"8080"`

	// Merchant identity. The hostname feeds session global ids.
	MerchantHostname string `env:"MERCHANT_HOSTNAME" envDefault:"shop.example.com"`

	// Market and cart ownership
	DefaultMarketID string `env:"DEFAULT_MARKET_ID" envDefault:"US"`
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD"`
	// UCPCustomerID is the fixed system customer every session cart is
	// stored under.
	UCPCustomerID string `env:"UCP_CUSTOMER_ID" envDefault:"ucp-system"`
	CartTTLHours  int    `env:"CART_TTL_HOURS" envDefault:"72"`

	// Tax applied to the subtotal, as a fraction (0.08 = 8%).
	TaxRate float64 `env:"TAX_RATE" envDefault:"0"`

	// Order-level promotion: percent off once the subtotal passes the
	// threshold (major units). Zero threshold disables the promotion.
	PromotionThreshold float64 `env:"PROMOTION_THRESHOLD" envDefault:"0"`
	PromotionPercent   float64 `env:"PROMOTION_PERCENT" envDefault:"0"`

	// Google Pay payment handler configuration
	GPayMerchantID          string   `env:"GPAY_MERCHANT_ID" envDefault:"merchant-id-placeholder"`
	GPayMerchantName        string   `env:"GPAY_MERCHANT_NAME" envDefault:"Example Merchant"`
	GPayAllowedCardNetworks []string `env:"GPAY_ALLOWED_CARD_NETWORKS" envDefault:"VISA,MASTERCARD" envSeparator:","`
	GPayAllowedAuthMethods  []string `env:"GPAY_ALLOWED_AUTH_METHODS" envDefault:"PAN_ONLY,CRYPTOGRAM_3DS" envSeparator:","`
	GPayGateway             string   `env:"GPAY_GATEWAY" envDefault:"example"`
	GPayGatewayMerchantID   string   `env:"GPAY_GATEWAY_MERCHANT_ID" envDefault:"exampleGatewayMerchantId"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"checkout"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"checkout_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"checkout_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (cart storage)
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.MerchantHostname == "" {
		return fmt.Errorf("MERCHANT_HOSTNAME is required")
	}
	if c.UCPCustomerID == "" {
		return fmt.Errorf("UCP_CUSTOMER_ID is required")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1), got %f", c.TaxRate)
	}
	if c.PromotionPercent < 0 || c.PromotionPercent > 100 {
		return fmt.Errorf("PROMOTION_PERCENT must be between 0 and 100, got %f", c.PromotionPercent)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the purchase order store.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for the cart store.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
