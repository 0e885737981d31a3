package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/vestire/server/cmd/server/docs" // swagger docs
	"github.com/vestire/server/internal/module/order"
	"github.com/vestire/server/internal/module/payment"
	"github.com/vestire/server/internal/shared/auth"
	"github.com/vestire/server/internal/shared/config"
	"github.com/vestire/server/internal/shared/metrics"
	"github.com/vestire/server/internal/shared/middleware"
)

// App represents the application.
type App struct {
	config   *config.Config
	db       *gorm.DB
	redis    goredis.UniversalClient
	router   *gin.Engine
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tokens   *auth.JWTManager

	orderHandler   *order.Handler
	paymentHandler *payment.Handler
	webhookHandler *payment.WebhookHandler
	adminHandler   *payment.AdminHandler
}

// NewApp creates the application and registers all routes.
func NewApp(
	cfg *config.Config,
	db *gorm.DB,
	redis goredis.UniversalClient,
	log *zap.Logger,
	registry *prometheus.Registry,
	m *metrics.Metrics,
	tokens *auth.JWTManager,
	orderHandler *order.Handler,
	paymentHandler *payment.Handler,
	webhookHandler *payment.WebhookHandler,
	adminHandler *payment.AdminHandler,
) *App {
	a := &App{
		config:         cfg,
		db:             db,
		redis:          redis,
		logger:         log,
		registry:       registry,
		metrics:        m,
		tokens:         tokens,
		orderHandler:   orderHandler,
		paymentHandler: paymentHandler,
		webhookHandler: webhookHandler,
		adminHandler:   adminHandler,
	}
	a.router = a.setupRouter()
	a.registerRoutes()
	return a
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	corsCfg := middleware.DefaultCORSConfig()
	if len(a.config.CORS.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = a.config.CORS.AllowOrigins
	}
	r.Use(middleware.CORS(corsCfg))
	if a.config.Metrics.Enabled {
		r.Use(middleware.Metrics(a.metrics))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	}

	r.GET("/health", a.health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	api := a.router.Group("/api")

	idempotency := middleware.Idempotency(a.redis, middleware.IdempotencyConfig{
		TTL: a.config.Redis.IdempotencyTTL,
	})

	a.orderHandler.RegisterRoutes(api, idempotency)
	a.paymentHandler.RegisterRoutes(api, idempotency)

	// Provider callbacks authenticate with their own token or signature.
	a.webhookHandler.RegisterRoutes(api)

	admin := api.Group("/admin")
	if a.config.Auth.JWTSecret == "" {
		a.logger.Warn("auth.jwt_secret not configured, admin routes disabled")
		admin.Use(adminDisabled)
	} else {
		admin.Use(middleware.RequireRole(a.tokens, auth.RoleAdmin))
	}
	a.orderHandler.RegisterAdminRoutes(admin)
	a.adminHandler.RegisterRoutes(admin)
}

func adminDisabled(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"success": false,
		"error":   "admin access is not configured",
		"code":    "ADMIN_DISABLED",
	})
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
