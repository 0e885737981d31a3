// Package provider contains HTTP clients for the external payment APIs.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	apperrors "github.com/vestire/server/internal/shared/errors"
	"github.com/vestire/server/internal/shared/metrics"
	"go.uber.org/zap"
)

// Provider names.
const (
	NameXendit      = "xendit"
	NameNOWPayments = "nowpayments"
)

// Request outcomes recorded in metrics.
const (
	outcomeOK            = "ok"
	outcomeProviderError = "provider_error"
	outcomeTimeout       = "timeout"
	outcomeBreakerOpen   = "breaker_open"
)

const maxResponseBytes = 1 << 20

// Config holds transport settings shared by provider clients.
type Config struct {
	Timeout    time.Duration
	Breaker    BreakerSettings
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// BreakerSettings configures the per-provider circuit breaker.
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// transport performs JSON calls against one provider through its breaker.
type transport struct {
	name    string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	auth   func(*http.Request)
}

func newTransport(name, baseURL string, cfg Config) *transport {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	t := &transport{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		metrics: cfg.Metrics,
		logger:  log.With(zap.String("provider", name)),
	}
	t.breaker = newBreaker(name, cfg.Breaker, t.onStateChange)
	t.metrics.SetBreakerState(name, int(gobreaker.StateClosed))
	return t
}

func newBreaker(name string, s BreakerSettings, onChange func(string, gobreaker.State, gobreaker.State)) *gobreaker.CircuitBreaker[any] {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval <= 0 {
		s.Interval = 60 * time.Second
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	threshold := s.FailureThreshold

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: onChange,
		// Client errors say nothing about provider health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			appErr, ok := apperrors.As(err)
			return ok && appErr.Code == apperrors.CodeProvider && appErr.StatusCode < http.StatusInternalServerError
		},
	})
}

func (t *transport) onStateChange(name string, from, to gobreaker.State) {
	t.logger.Warn("provider circuit breaker state changed",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	t.metrics.SetBreakerState(name, int(to))
}

// do executes c and decodes a 2xx JSON response into out.
func (t *transport) do(ctx context.Context, c call, out any) error {
	start := time.Now()
	raw, err := t.breaker.Execute(func() (any, error) {
		body, err := t.roundTrip(ctx, c)
		return body, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = apperrors.Provider(t.name, http.StatusServiceUnavailable, "provider temporarily unavailable", err)
		}
		t.metrics.RecordProviderRequest(t.name, c.op, outcomeOf(err), time.Since(start))
		return err
	}
	t.metrics.RecordProviderRequest(t.name, c.op, outcomeOK, time.Since(start))

	if out == nil {
		return nil
	}
	body, _ := raw.([]byte)
	if err := json.Unmarshal(body, out); err != nil {
		t.logger.Error("malformed provider response",
			zap.String("operation", c.op),
			zap.ByteString("body", truncate(body)),
			zap.Error(err),
		)
		return apperrors.Provider(t.name, 0, "malformed response", err)
	}
	return nil
}

func (t *transport) roundTrip(ctx context.Context, c call) ([]byte, error) {
	var reader io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := t.baseURL + c.path
	if len(c.query) > 0 {
		target += "?" + c.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, c.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			t.logger.Error("provider request timed out", zap.String("operation", c.op), zap.Error(err))
			return nil, apperrors.Timeout(t.name, err)
		}
		t.logger.Error("provider request failed", zap.String("operation", c.op), zap.Error(err))
		return nil, apperrors.Provider(t.name, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, apperrors.Timeout(t.name, err)
		}
		return nil, apperrors.Provider(t.name, 0, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Error("provider returned error",
			zap.String("operation", c.op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body)),
		)
		return nil, apperrors.Provider(t.name, resp.StatusCode, errorMessage(body, resp.StatusCode), nil)
	}

	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func outcomeOf(err error) string {
	appErr, ok := apperrors.As(err)
	switch {
	case !ok:
		return outcomeProviderError
	case appErr.Code == apperrors.CodeTimeout:
		return outcomeTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return outcomeBreakerOpen
	default:
		return outcomeProviderError
	}
}

// errorMessage extracts a provider error message from a JSON error body.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Message   string `json:"message"`
		ErrorCode string `json:"error_code"`
		Code      string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		code := payload.ErrorCode
		if code == "" {
			code = payload.Code
		}
		switch {
		case code != "" && payload.Message != "":
			return code + ": " + payload.Message
		case payload.Message != "":
			return payload.Message
		case code != "":
			return code
		}
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func truncate(body []byte) []byte {
	const limit = 2048
	if len(body) > limit {
		return body[:limit]
	}
	return body
}

func configurationError(name, setting string) error {
	return apperrors.Configuration(fmt.Sprintf("%s %s is not configured", name, setting))
}

func redirectURL(publicURL, path, orderID string) string {
	return strings.TrimRight(publicURL, "/") + path + "?orderId=" + url.QueryEscape(orderID)
}
