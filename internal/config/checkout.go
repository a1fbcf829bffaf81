package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutConfig holds pricing rules and transaction processing limits.
type CheckoutConfig struct {
	Currency              string          `yaml:"currency"`
	TaxRate               decimal.Decimal `yaml:"tax_rate"`
	FreeShippingThreshold decimal.Decimal `yaml:"free_shipping_threshold"`
	StandardShipping      decimal.Decimal `yaml:"standard_shipping"`
	ExpressShipping       decimal.Decimal `yaml:"express_shipping"`

	MaxRetries          int           `yaml:"max_retries"`
	GatewayTimeout      time.Duration `yaml:"gateway_timeout"`
	Workers             int           `yaml:"workers"`
	NotificationTimeout time.Duration `yaml:"notification_timeout"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		Currency:              "USD",
		TaxRate:               decimal.RequireFromString("0.085"),
		FreeShippingThreshold: decimal.RequireFromString("50.00"),
		StandardShipping:      decimal.RequireFromString("5.99"),
		ExpressShipping:       decimal.RequireFromString("12.99"),
		MaxRetries:            3,
		GatewayTimeout:        30 * time.Second,
		Workers:               8,
		NotificationTimeout:   10 * time.Second,
	}
}

// GatewayConfig configures the simulated providers and the optional
// Stripe-backed card decision.
type GatewayConfig struct {
	// EncryptionKey is a 64 hex char AES-256 key for stored payment secrets.
	EncryptionKey string `yaml:"encryption_key"`

	StripeSecretKey string `yaml:"stripe_secret_key"`

	CardSuccessRate   float64 `yaml:"card_success_rate"`
	WalletSuccessRate float64 `yaml:"wallet_success_rate"`
	BankSuccessRate   float64 `yaml:"bank_success_rate"`

	LargeAmountThreshold decimal.Decimal `yaml:"large_amount_threshold"`
	LargeAmountFactor    float64         `yaml:"large_amount_factor"`

	MinLatency time.Duration `yaml:"min_latency"`
	MaxLatency time.Duration `yaml:"max_latency"`
	Seed       int64         `yaml:"seed"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		CardSuccessRate:      0.92,
		WalletSuccessRate:    0.96,
		BankSuccessRate:      0.88,
		LargeAmountThreshold: decimal.RequireFromString("10000"),
		LargeAmountFactor:    0.8,
		MinLatency:           500 * time.Millisecond,
		MaxLatency:           2 * time.Second,
	}
}

// NotificationConfig configures the outbound channels for transaction
// outcome notifications. Empty Redis/SMTP hosts disable that channel.
type NotificationConfig struct {
	Channel string      `yaml:"channel"`
	Redis   RedisConfig `yaml:"redis"`
	SMTP    SMTPConfig  `yaml:"smtp"`

	// Recipients maps user ids to e-mail addresses for the SMTP channel.
	Recipients map[string]string `yaml:"recipients"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}
