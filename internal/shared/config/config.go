package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Payments PaymentsConfig `mapstructure:"payments"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	PublicURL       string        `mapstructure:"public_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. An empty address disables Redis.
type RedisConfig struct {
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// AuthConfig holds admin token configuration.
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// PaymentsConfig holds payment provider configuration.
type PaymentsConfig struct {
	HTTPTimeout time.Duration     `mapstructure:"http_timeout"`
	HTTPClient  HTTPClientConfig  `mapstructure:"http_client"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
	Xendit      XenditConfig      `mapstructure:"xendit"`
	NOWPayments NOWPaymentsConfig `mapstructure:"nowpayments"`
}

// HTTPClientConfig holds connection pool settings for outbound provider calls.
type HTTPClientConfig struct {
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	KeepAlive           time.Duration `mapstructure:"keep_alive"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
}

// BreakerConfig holds circuit breaker settings shared by all providers.
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// XenditConfig holds card/bank invoicing provider configuration.
type XenditConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	SecretKey      string  `mapstructure:"secret_key"`
	WebhookToken   string  `mapstructure:"webhook_token"`
	Currency       string  `mapstructure:"currency"`
	QuoteCurrency  string  `mapstructure:"quote_currency"`
	ConversionRate float64 `mapstructure:"conversion_rate"`
	InvoiceExpiry  int     `mapstructure:"invoice_expiry_seconds"`
}

// NOWPaymentsConfig holds crypto provider configuration.
type NOWPaymentsConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	IPNSecret     string `mapstructure:"ipn_secret"`
	PriceCurrency string `mapstructure:"price_currency"`
	PayCurrency   string `mapstructure:"pay_currency"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load loads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/vestire")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// VESTIRE_PAYMENTS_XENDIT_CURRENCY -> payments.xendit.currency
	v.SetEnvPrefix("VESTIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecretOverrides(&cfg)

	return &cfg, nil
}

// applySecretOverrides reads provider credentials from their conventional
// environment names so deployments do not have to use the prefixed form.
func applySecretOverrides(cfg *Config) {
	if key := os.Getenv("XENDIT_SECRET_KEY"); key != "" {
		cfg.Payments.Xendit.SecretKey = key
	}
	if token := os.Getenv("XENDIT_WEBHOOK_TOKEN"); token != "" {
		cfg.Payments.Xendit.WebhookToken = token
	}
	if key := os.Getenv("NOWPAYMENTS_API_KEY"); key != "" {
		cfg.Payments.NOWPayments.APIKey = key
	}
	if secret := os.Getenv("NOWPAYMENTS_IPN_SECRET"); secret != "" {
		cfg.Payments.NOWPayments.IPNSecret = secret
	}
	if secret := os.Getenv("VESTIRE_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("VESTIRE_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("VESTIRE_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "vestire")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "vestire")
	v.SetDefault("auth.token_expiry", 12*time.Hour)

	// Payment defaults
	v.SetDefault("payments.http_timeout", 20*time.Second)
	v.SetDefault("payments.http_client.max_idle_conns", 20)
	v.SetDefault("payments.http_client.max_idle_conns_per_host", 10)
	v.SetDefault("payments.http_client.max_conns_per_host", 20)
	v.SetDefault("payments.http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("payments.http_client.dial_timeout", 5*time.Second)
	v.SetDefault("payments.http_client.keep_alive", 30*time.Second)
	v.SetDefault("payments.http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("payments.breaker.max_requests", 1)
	v.SetDefault("payments.breaker.interval", 60*time.Second)
	v.SetDefault("payments.breaker.timeout", 30*time.Second)
	v.SetDefault("payments.breaker.failure_threshold", 5)

	v.SetDefault("payments.xendit.base_url", "https://api.xendit.co")
	v.SetDefault("payments.xendit.secret_key", "")
	v.SetDefault("payments.xendit.webhook_token", "")
	v.SetDefault("payments.xendit.currency", "IDR")
	v.SetDefault("payments.xendit.quote_currency", "USD")
	v.SetDefault("payments.xendit.conversion_rate", 15500)
	v.SetDefault("payments.xendit.invoice_expiry_seconds", 86400)

	v.SetDefault("payments.nowpayments.base_url", "https://api.nowpayments.io/v1")
	v.SetDefault("payments.nowpayments.api_key", "")
	v.SetDefault("payments.nowpayments.ipn_secret", "")
	v.SetDefault("payments.nowpayments.price_currency", "usd")
	v.SetDefault("payments.nowpayments.pay_currency", "usdttrc20")

	// CORS defaults
	v.SetDefault("cors.allow_origins", []string{"*"})

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "vestire")
}
