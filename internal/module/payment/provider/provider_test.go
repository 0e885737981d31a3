package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vestire/server/internal/shared/errors"
	"github.com/vestire/server/internal/shared/metrics"
)

func testConfig(m *metrics.Metrics) Config {
	return Config{
		Timeout: 2 * time.Second,
		Breaker: BreakerSettings{FailureThreshold: 2, Timeout: time.Minute},
		Metrics: m,
	}
}

func TestTransport_ProviderErrorPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_code":"INVALID_API_KEY","message":"API key is invalid"}`))
	}))
	defer srv.Close()

	tr := newTransport("fake", srv.URL, testConfig(nil))
	err := tr.do(context.Background(), call{op: "probe", method: http.MethodGet, path: "/x"}, nil)

	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeProvider, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "INVALID_API_KEY")
}

func TestTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	m := metrics.New("test", prometheus.NewRegistry())
	cfg := testConfig(m)
	cfg.Timeout = 50 * time.Millisecond

	tr := newTransport("fake", srv.URL, cfg)
	err := tr.do(context.Background(), call{op: "slow", method: http.MethodGet, path: "/slow"}, nil)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimeout))
	assert.Equal(t, http.StatusGatewayTimeout, apperrors.GetStatusCode(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("fake", "slow", "timeout")))
}

func TestTransport_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	tr := newTransport("fake", srv.URL, testConfig(nil))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := tr.do(ctx, call{op: "slow", method: http.MethodGet, path: "/slow"}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimeout))
}

func TestTransport_BreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := metrics.New("test", prometheus.NewRegistry())
	tr := newTransport("fake", srv.URL, testConfig(m))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := tr.do(ctx, call{op: "probe", method: http.MethodGet, path: "/"}, nil)
		assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
	}

	err := tr.do(ctx, call{op: "probe", method: http.MethodGet, path: "/"}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.GetStatusCode(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("fake", "probe", "breaker_open")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ProviderBreakerState.WithLabelValues("fake")))
}

func TestTransport_ClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tr := newTransport("fake", srv.URL, testConfig(nil))
	for i := 0; i < 4; i++ {
		err := tr.do(context.Background(), call{op: "probe", method: http.MethodGet, path: "/"}, nil)
		assert.Equal(t, http.StatusNotFound, apperrors.GetStatusCode(err))
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestTransport_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	tr := newTransport("fake", srv.URL, testConfig(nil))
	var out map[string]any
	err := tr.do(context.Background(), call{op: "probe", method: http.MethodGet, path: "/"}, &out)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeProvider))
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetStatusCode(err))
}

func TestFlexibleID(t *testing.T) {
	var v struct {
		A FlexibleID `json:"a"`
		B FlexibleID `json:"b"`
		C FlexibleID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":5077125051,"b":"iid_42","c":null}`), &v))
	assert.Equal(t, "5077125051", v.A.String())
	assert.Equal(t, "iid_42", v.B.String())
	assert.True(t, v.C.Empty())

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}
