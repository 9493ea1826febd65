package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Email     EmailConfig     `mapstructure:"email"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Log       LogConfig       `mapstructure:"log"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`     // "development" or "production"
	BaseURL string `mapstructure:"base_url"` // Public URL of the web app, used in emails and redirects
}

// IsProduction reports whether error details must be hidden from clients.
func (s ServerConfig) IsProduction() bool {
	return s.Mode == "production"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // GORM log level; defaults to log.level
}

// AuthConfig holds bearer token verification settings. Tokens are issued by
// the external identity provider; Haven never mints them.
type AuthConfig struct {
	Type           string `mapstructure:"type"`            // "jwt" (shared HS256 secret) or "oidc"
	JWTSecret      string `mapstructure:"jwt_secret"`      // Shared secret for "jwt"
	JWTAudience    string `mapstructure:"jwt_audience"`    // Expected aud claim, empty to skip
	OIDCIssuer     string `mapstructure:"oidc_issuer"`     // Issuer URL for "oidc"
	OIDCClientID   string `mapstructure:"oidc_client_id"`  // Expected audience for "oidc"
	PlatformAdmins string `mapstructure:"platform_admins"` // Comma-separated emails promoted to platform_admin
}

// BillingConfig holds Stripe settings
type BillingConfig struct {
	StripeSecretKey     string            `mapstructure:"stripe_secret_key"`
	WebhookSecret       string            `mapstructure:"webhook_secret"`
	PriceTiers          map[string]string `mapstructure:"price_tiers"` // Stripe price ID -> tier
	TierPrices          map[string]string `mapstructure:"tier_prices"` // tier -> Stripe price ID for checkout
	CheckoutSuccessPath string            `mapstructure:"checkout_success_path"`
	CheckoutCancelPath  string            `mapstructure:"checkout_cancel_path"`
	PortalReturnPath    string            `mapstructure:"portal_return_path"`
}

// EmailConfig holds outbound email settings
type EmailConfig struct {
	Provider     string `mapstructure:"provider"` // "log", "smtp" or "resend"
	From         string `mapstructure:"from"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	ResendAPIKey string `mapstructure:"resend_api_key"`
}

// QueueConfig holds job queue configuration
type QueueConfig struct {
	Type        string `mapstructure:"type"`        // "memory" or "valkey"
	ValkeyAddr  string `mapstructure:"valkey_addr"` // Valkey address (if type=valkey), e.g., "localhost:6379"
	MaxWorkers  int    `mapstructure:"max_workers"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// SecurityConfig holds the secret used to derive the field encryption key
type SecurityConfig struct {
	EncryptionSecret string `mapstructure:"encryption_secret"`
}

// RateLimitConfig holds per-client request limits. Zero disables a tier.
type RateLimitConfig struct {
	APIPerMinute     int `mapstructure:"api_per_minute"`
	WebhookPerMinute int `mapstructure:"webhook_per_minute"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for local development
	v.SetDefault("server.port", 8470)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./haven.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("auth.type", "jwt")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.jwt_audience", "authenticated")
	v.SetDefault("billing.checkout_success_path", "/settings/billing?checkout=success")
	v.SetDefault("billing.checkout_cancel_path", "/settings/billing?checkout=cancelled")
	v.SetDefault("billing.portal_return_path", "/settings/billing")
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "Haven <no-reply@haven.local>")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.valkey_addr", "localhost:6379")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("security.encryption_secret", "change-me-in-production")
	v.SetDefault("rate_limit.api_per_minute", 300)
	v.SetDefault("rate_limit.webhook_per_minute", 600)

	// Unmarshal only sees env values for keys viper already knows, so
	// credentials without a default are registered empty.
	for _, key := range []string{
		"auth.oidc_issuer",
		"auth.oidc_client_id",
		"auth.platform_admins",
		"billing.stripe_secret_key",
		"billing.webhook_secret",
		"email.smtp_host",
		"email.smtp_user",
		"email.smtp_password",
		"email.resend_api_key",
	} {
		v.SetDefault(key, "")
	}

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/haven/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Environment variables override
	v.SetEnvPrefix("HAVEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings that would fail later in a less obvious way.
func (c *Config) Validate() error {
	switch c.Auth.Type {
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth.type is jwt")
		}
	case "oidc":
		if c.Auth.OIDCIssuer == "" {
			return fmt.Errorf("auth.oidc_issuer is required when auth.type is oidc")
		}
	default:
		return fmt.Errorf("unsupported auth type: %s (supported: jwt, oidc)", c.Auth.Type)
	}

	switch c.Email.Provider {
	case "log":
	case "smtp":
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host is required when email.provider is smtp")
		}
	case "resend":
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("email.resend_api_key is required when email.provider is resend")
		}
	default:
		return fmt.Errorf("unsupported email provider: %s (supported: log, smtp, resend)", c.Email.Provider)
	}

	if c.Server.IsProduction() {
		if c.Billing.WebhookSecret == "" {
			return fmt.Errorf("billing.webhook_secret is required in production")
		}
		if c.Security.EncryptionSecret == "change-me-in-production" {
			return fmt.Errorf("security.encryption_secret must be changed in production")
		}
	}
	return nil
}
