package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment"
	"github.com/vestire/server/internal/module/payment/provider"
	"github.com/vestire/server/internal/shared/auth"
	"github.com/vestire/server/internal/shared/cache"
	"github.com/vestire/server/internal/shared/config"
	"github.com/vestire/server/internal/shared/database"
	"github.com/vestire/server/internal/shared/httpclient"
	"github.com/vestire/server/internal/shared/logger"
	"github.com/vestire/server/internal/shared/metrics"
)

// ===== Infrastructure Providers =====

// InfraSet provides infrastructure dependencies.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideRedisClient,
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPClient,
	ProvideJWTManager,
)

// ProvideLogger creates the zap logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func()) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return log, func() { _ = log.Sync() }
}

// ProvideDatabase opens the database and migrates the schema when enabled.
func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, &order.Order{}, &payment.WebhookEvent{}); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return db, cleanup, nil
}

// ProvideRedisClient creates a Redis client. Redis is optional; without it
// idempotency keys are not enforced.
func ProvideRedisClient(cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, func()) {
	if cfg.Redis.Address == "" {
		log.Info("redis not configured, idempotency keys disabled")
		return nil, func() {}
	}
	client, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn("redis connection failed, continuing without idempotency", zap.Error(err))
		return nil, func() {}
	}
	return client, func() { _ = cache.Close(client) }
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a metrics instance.
func ProvideMetrics(cfg *config.Config, reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(cfg.Metrics.Namespace, reg)
}

// ProvideHTTPClient creates the pooled client shared by payment providers.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	return httpclient.New(cfg.Payments.HTTPClient, cfg.Payments.HTTPTimeout)
}

// ProvideJWTManager creates the admin token manager.
func ProvideJWTManager(cfg *config.Config) *auth.JWTManager {
	return auth.NewJWTManager(&auth.JWTConfig{
		Secret:      cfg.Auth.JWTSecret,
		Issuer:      cfg.Auth.Issuer,
		TokenExpiry: cfg.Auth.TokenExpiry,
	})
}

// ===== Order Providers =====

// OrderSet provides order module dependencies.
var OrderSet = wire.NewSet(
	order.NewRepository,
	order.NewService,
	order.NewHandler,
)

// ===== Payment Providers =====

// PaymentSet provides payment module dependencies.
var PaymentSet = wire.NewSet(
	ProvideProviderConfig,
	ProvideXenditClient,
	ProvideNOWPaymentsClient,
	ProvidePaymentService,
	payment.NewRepository,
	payment.NewHandler,
	payment.NewWebhookHandler,
	payment.NewAdminHandler,
)

// ProvideProviderConfig builds the shared transport settings for provider clients.
func ProvideProviderConfig(cfg *config.Config, client *http.Client, m *metrics.Metrics, log *zap.Logger) provider.Config {
	b := cfg.Payments.Breaker
	return provider.Config{
		Timeout: cfg.Payments.HTTPTimeout,
		Breaker: provider.BreakerSettings{
			MaxRequests:      b.MaxRequests,
			Interval:         b.Interval,
			Timeout:          b.Timeout,
			FailureThreshold: b.FailureThreshold,
		},
		HTTPClient: client,
		Metrics:    m,
		Logger:     log,
	}
}

// ProvideXenditClient creates the card/bank invoicing client.
func ProvideXenditClient(cfg *config.Config, tc provider.Config) *provider.XenditClient {
	x := cfg.Payments.Xendit
	return provider.NewXenditClient(provider.XenditConfig{
		BaseURL:         x.BaseURL,
		SecretKey:       x.SecretKey,
		Currency:        x.Currency,
		QuoteCurrency:   x.QuoteCurrency,
		ConversionRate:  decimal.NewFromFloat(x.ConversionRate),
		InvoiceDuration: x.InvoiceExpiry,
		PublicURL:       cfg.Server.PublicURL,
	}, tc)
}

// ProvideNOWPaymentsClient creates the crypto payment client.
func ProvideNOWPaymentsClient(cfg *config.Config, tc provider.Config) *provider.NOWPaymentsClient {
	n := cfg.Payments.NOWPayments
	return provider.NewNOWPaymentsClient(provider.NOWPaymentsConfig{
		BaseURL:       n.BaseURL,
		APIKey:        n.APIKey,
		PriceCurrency: n.PriceCurrency,
		PayCurrency:   n.PayCurrency,
		PublicURL:     cfg.Server.PublicURL,
	}, tc)
}

// ProvidePaymentService creates the payment service.
func ProvidePaymentService(
	cfg *config.Config,
	orders *order.Service,
	xendit *provider.XenditClient,
	nowpayments *provider.NOWPaymentsClient,
	events payment.Repository,
	m *metrics.Metrics,
	log *zap.Logger,
) *payment.Service {
	return payment.NewService(orders, xendit, nowpayments, events, payment.Config{
		XenditWebhookToken:   cfg.Payments.Xendit.WebhookToken,
		NOWPaymentsIPNSecret: cfg.Payments.NOWPayments.IPNSecret,
	}, m, log)
}

// AppSet is the complete provider set.
var AppSet = wire.NewSet(
	InfraSet,
	OrderSet,
	PaymentSet,
	NewApp,
)
