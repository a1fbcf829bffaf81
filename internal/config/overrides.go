package config

import (
	pkgconfig "github.com/wekeepgrowing/agrimarket/pkg/config"
)

// overrideKeys are the settings that may come from the environment instead
// of the YAML file, mostly secrets and deployment addresses.
var overrideKeys = []string{
	"service.environment",
	"database.driver",
	"database.host",
	"database.port",
	"database.name",
	"database.user",
	"database.password",
	"database.path",
	"server.http.port",
	"server.grpc.port",
	"log.level",
	"log.development",
	"jwt.secret",
	"jwt.issuer",
	"jwt.skip_paths",
	"checkout.max_retries",
	"checkout.gateway_timeout",
	"gateway.encryption_key",
	"gateway.stripe_secret_key",
	"gateway.card_success_rate",
	"gateway.wallet_success_rate",
	"gateway.bank_success_rate",
	"notification.redis.addr",
	"notification.redis.password",
	"notification.smtp.host",
	"notification.smtp.password",
}

// ApplyOverrides copies every set key from src onto the configuration.
func (c *Config) ApplyOverrides(src pkgconfig.Config) {
	setString := func(key string, dst *string) {
		if src.IsSet(key) {
			*dst = src.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if src.IsSet(key) {
			*dst = src.GetInt(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if src.IsSet(key) {
			*dst = src.GetFloat64(key)
		}
	}

	setString("service.environment", &c.Service.Environment)
	setString("database.driver", &c.Database.Driver)
	setString("database.host", &c.Database.Host)
	setInt("database.port", &c.Database.Port)
	setString("database.name", &c.Database.Name)
	setString("database.user", &c.Database.User)
	setString("database.password", &c.Database.Password)
	setString("database.path", &c.Database.Path)
	setInt("server.http.port", &c.Server.HTTP.Port)
	setInt("server.grpc.port", &c.Server.GRPC.Port)
	setString("log.level", &c.Log.Level)
	if src.IsSet("log.development") {
		c.Log.Development = src.GetBool("log.development")
	}
	setString("jwt.secret", &c.JWT.Secret)
	setString("jwt.issuer", &c.JWT.Issuer)
	if src.IsSet("jwt.skip_paths") {
		c.JWT.SkipPaths = src.GetStringSlice("jwt.skip_paths")
	}
	setInt("checkout.max_retries", &c.Checkout.MaxRetries)
	if src.IsSet("checkout.gateway_timeout") {
		c.Checkout.GatewayTimeout = src.GetDuration("checkout.gateway_timeout")
	}
	setString("gateway.encryption_key", &c.Gateway.EncryptionKey)
	setString("gateway.stripe_secret_key", &c.Gateway.StripeSecretKey)
	setFloat("gateway.card_success_rate", &c.Gateway.CardSuccessRate)
	setFloat("gateway.wallet_success_rate", &c.Gateway.WalletSuccessRate)
	setFloat("gateway.bank_success_rate", &c.Gateway.BankSuccessRate)
	setString("notification.redis.addr", &c.Notification.Redis.Addr)
	setString("notification.redis.password", &c.Notification.Redis.Password)
	setString("notification.smtp.host", &c.Notification.SMTP.Host)
	setString("notification.smtp.password", &c.Notification.SMTP.Password)
}
