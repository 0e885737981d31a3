package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment"
	"github.com/vestire/server/internal/shared/auth"
	"github.com/vestire/server/internal/shared/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{PublicURL: "https://shop.example"},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			Issuer:      "vestire",
			TokenExpiry: time.Hour,
		},
		Payments: config.PaymentsConfig{HTTPTimeout: time.Second},
		Log:      config.LogConfig{Level: "info", Format: "json"},
		Metrics:  config.MetricsConfig{Enabled: true, Namespace: "vestire"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&order.Order{}, &payment.WebhookEvent{}))

	log := zap.NewNop()
	registry := ProvideRegistry()
	m := ProvideMetrics(cfg, registry)
	tokens := ProvideJWTManager(cfg)

	orderService := order.NewService(order.NewRepository(db), log)
	tc := ProvideProviderConfig(cfg, ProvideHTTPClient(cfg), m, log)
	paymentService := ProvidePaymentService(cfg, orderService,
		ProvideXenditClient(cfg, tc), ProvideNOWPaymentsClient(cfg, tc),
		payment.NewRepository(db), m, log)

	a := NewApp(cfg, db, nil, log, registry, m, tokens,
		order.NewHandler(orderService),
		payment.NewHandler(paymentService),
		payment.NewWebhookHandler(paymentService, log),
		payment.NewAdminHandler(paymentService),
	)
	gin.SetMode(gin.TestMode)
	return a
}

func serve(a *App, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	return w
}

func TestApp_Routes(t *testing.T) {
	cfg := testConfig()
	a := newTestApp(t, cfg)

	t.Run("health", func(t *testing.T) {
		w := serve(a, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ok"`)
	})

	t.Run("webhook probe", func(t *testing.T) {
		w := serve(a, http.MethodGet, "/api/payments/webhook", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "xendit-webhook")
	})

	t.Run("checkout", func(t *testing.T) {
		w := serve(a, http.MethodPost, "/api/orders",
			[]byte(`{"customerEmail":"a@b.com","items":[{"productId":"p-1","name":"Shirt","quantity":1,"unitPrice":"25.00"}]}`), nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("create invoice without key", func(t *testing.T) {
		w := serve(a, http.MethodPost, "/api/payments/create-invoice",
			[]byte(`{"orderId":"abc123","orderNumber":"ORD-1","amount":100,"email":"a@b.com"}`), nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "CONFIGURATION_ERROR")
	})

	t.Run("admin requires a token", func(t *testing.T) {
		w := serve(a, http.MethodGet, "/api/admin/orders", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		token, _, err := a.tokens.GenerateToken("ops", auth.RoleAdmin)
		require.NoError(t, err)
		w = serve(a, http.MethodGet, "/api/admin/orders", nil, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)

		w = serve(a, http.MethodGet, "/api/admin/webhooks?processed=false", nil, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		w := serve(a, http.MethodGet, "/metrics", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "vestire_http_requests_total")
	})
}

func TestApp_AdminDisabledWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	a := newTestApp(t, cfg)

	w := serve(a, http.MethodGet, "/api/admin/orders", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
