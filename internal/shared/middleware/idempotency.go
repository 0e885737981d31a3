package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header for idempotency key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from the idempotency cache.
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyKeyPrefix  = "idempotency:"
	defaultIdempotencyTTL = 24 * time.Hour
	idempotencyLockTTL    = 30 * time.Second
)

// IdempotencyConfig holds idempotency middleware configuration.
type IdempotencyConfig struct {
	// TTL is the time to live for cached responses.
	TTL time.Duration
}

// idempotencyResponse stores the cached response.
type idempotencyResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	BodyHash    string `json:"body_hash"`
	Body        []byte `json:"body"`
}

// idempotencyResponseWriter wraps gin.ResponseWriter to capture the response.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns a middleware that replays the stored response for a
// repeated Idempotency-Key. Requests without the header, or with a nil
// Redis client, pass through untouched.
func Idempotency(redis goredis.UniversalClient, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL == 0 {
		cfg.TTL = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		if redis == nil {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := generateIdempotencyKey(c, idempotencyKey)
		bodyHash := bodyHashKey(c)

		if cached, err := getCachedResponse(ctx, redis, cacheKey); err == nil && cached != nil {
			if cached.BodyHash != bodyHash {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
					"success": false,
					"error":   "Idempotency-Key was already used with a different request body",
					"code":    "IDEMPOTENCY_KEY_REUSED",
				})
				return
			}
			c.Header(IdempotentReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := redis.SetNX(ctx, lockKey, "1", idempotencyLockTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !locked {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   "a request with this idempotency key is already being processed",
				"code":    "REQUEST_IN_PROGRESS",
			})
			return
		}
		defer redis.Del(context.WithoutCancel(ctx), lockKey)

		respWriter := &idempotencyResponseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = respWriter

		c.Next()

		// 5xx responses are not cached so the client can retry.
		status := c.Writer.Status()
		if status >= 200 && status < 500 {
			resp := &idempotencyResponse{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				BodyHash:    bodyHash,
				Body:        respWriter.body.Bytes(),
			}
			_ = cacheResponse(context.WithoutCancel(ctx), redis, cacheKey, resp, cfg.TTL)
		}
	}
}

// generateIdempotencyKey generates a cache key from the request.
func generateIdempotencyKey(c *gin.Context, idempotencyKey string) string {
	hash := sha256.Sum256([]byte(c.Request.Method + ":" + c.FullPath() + ":" + idempotencyKey))
	return idempotencyKeyPrefix + hex.EncodeToString(hash[:])
}

// bodyHashKey hashes the request body and restores it for the handler.
func bodyHashKey(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

func getCachedResponse(ctx context.Context, redis goredis.UniversalClient, key string) (*idempotencyResponse, error) {
	data, err := redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var resp idempotencyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func cacheResponse(ctx context.Context, redis goredis.UniversalClient, key string, resp *idempotencyResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return redis.Set(ctx, key, data, ttl).Err()
}
