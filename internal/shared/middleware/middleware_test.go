package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vestire/server/internal/shared/auth"
	"github.com/vestire/server/internal/shared/logger"
	"github.com/vestire/server/internal/shared/metrics"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	t.Run("generates new request ID when not provided", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, GetRequestID(c))
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "existing-request-id-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "existing-request-id-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "existing-request-id-123", w.Body.String())
	})
}

func TestLogging(t *testing.T) {
	t.Run("logs successful requests", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(&logger.Config{Level: "info", Format: "json", Output: buf})

		router := gin.New()
		router.Use(RequestID())
		router.Use(Logging(log))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/test?x=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		out := buf.String()
		assert.Contains(t, out, "HTTP Request")
		assert.Contains(t, out, `"method":"GET"`)
		assert.Contains(t, out, `"path":"/test"`)
		assert.Contains(t, out, `"status":200`)
		assert.Contains(t, out, `"query":"x=1"`)
		assert.Contains(t, out, "request_id")
	})

	t.Run("logs 4xx requests as warnings", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(&logger.Config{Level: "warn", Format: "json", Output: buf})

		router := gin.New()
		router.Use(Logging(log))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusNotFound, "not found")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Contains(t, buf.String(), `"level":"warn"`)
	})

	t.Run("logs 5xx requests as errors", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(&logger.Config{Level: "error", Format: "json", Output: buf})

		router := gin.New()
		router.Use(Logging(log))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusInternalServerError, "boom")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Contains(t, buf.String(), `"level":"error"`)
	})
}

func TestRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(&logger.Config{Level: "error", Format: "json", Output: buf})

	router := gin.New()
	router.Use(Recovery(log))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "test panic")
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())

	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/api/orders/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/orders/abc", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/orders/:id", "2xx")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestRequireRole(t *testing.T) {
	manager := auth.NewJWTManager(&auth.JWTConfig{Secret: "test-secret", Issuer: "vestire-test"})

	router := gin.New()
	router.Use(RequireRole(manager, auth.RoleAdmin))
	router.GET("/admin", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SubjectKey))
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/admin", nil)
		if header != "" {
			req.Header.Set(AuthorizationHeader, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("missing header", func(t *testing.T) {
		w := call("")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("invalid token", func(t *testing.T) {
		w := call("Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})

	t.Run("wrong role", func(t *testing.T) {
		token, _, err := manager.GenerateToken("someone", "customer")
		require.NoError(t, err)
		w := call("Bearer " + token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin", func(t *testing.T) {
		token, _, err := manager.GenerateToken("ops@vestire.test", auth.RoleAdmin)
		require.NoError(t, err)
		w := call("Bearer " + token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ops@vestire.test", w.Body.String())
	})
}

func TestIdempotency_NilRedisPassesThrough(t *testing.T) {
	var calls int32
	router := gin.New()
	router.Use(Idempotency(nil, IdempotencyConfig{}))
	router.POST("/orders", func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/orders", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	var calls int32
	router := gin.New()
	router.Use(Recovery(zap.NewNop()))
	router.Use(Idempotency(client, IdempotencyConfig{TTL: time.Minute}))
	router.POST("/orders", func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/orders", strings.NewReader(body))
		req.Header.Set(IdempotencyKeyHeader, "checkout-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send(`{"amount":100}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := send(`{"amount":100}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	reused := send(`{"amount":999}`)
	assert.Equal(t, http.StatusUnprocessableEntity, reused.Code)
}
