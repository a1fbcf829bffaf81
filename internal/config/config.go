package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pkgconfig "github.com/wekeepgrowing/agrimarket/pkg/config"
	"github.com/wekeepgrowing/agrimarket/pkg/logger"
)

// EnvPrefix is the prefix for environment overrides, e.g. AGRIMARKET_DATABASE_PASSWORD.
const EnvPrefix = "agrimarket"

type Config struct {
	Service      ServiceConfig      `yaml:"service"`
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	Log          logger.Config      `yaml:"log"`
	JWT          JWTConfig          `yaml:"jwt"`
	Checkout     CheckoutConfig     `yaml:"checkout"`
	Gateway      GatewayConfig      `yaml:"gateway"`
	Notification NotificationConfig `yaml:"notification"`
}

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/checkout.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.ApplyOverrides(pkgconfig.FromEnv(EnvPrefix, overrideKeys...))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default so omitted keys keep their defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration that runs against an embedded SQLite file
// with simulated gateways.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "checkout",
			Environment: "development",
			Version:     "dev",
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "agrimarket.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{Host: "0.0.0.0", Port: 8080},
			GRPC: GRPCConfig{Host: "0.0.0.0", Port: 9090},
		},
		Log: logger.Config{
			Level:   "info",
			Format:  "json",
			Output:  "stdout",
			Service: "checkout",
		},
		Checkout: DefaultCheckoutConfig(),
		Gateway:  DefaultGatewayConfig(),
		Notification: NotificationConfig{
			Channel: "notifications",
		},
	}
}

// Validate checks values that would otherwise fail deep inside the service.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Checkout.MaxRetries < 0 {
		return fmt.Errorf("checkout.max_retries must not be negative")
	}
	if c.Checkout.GatewayTimeout <= 0 {
		return fmt.Errorf("checkout.gateway_timeout must be positive")
	}
	if c.Checkout.Workers <= 0 {
		return fmt.Errorf("checkout.workers must be positive")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.Gateway.EncryptionKey == "" {
		return fmt.Errorf("gateway.encryption_key is required")
	}
	return nil
}
