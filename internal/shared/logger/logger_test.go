package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("creates with default config", func(t *testing.T) {
		l := New(nil)
		assert.NotNil(t, l)
	})

	t.Run("json format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "debug", Format: "json", Output: buf})

		l.Info("test message", zap.String("order_id", "abc123"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "test message", entry["msg"])
		assert.Equal(t, "abc123", entry["order_id"])
		assert.Equal(t, "info", entry["level"])
	})

	t.Run("text format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New(&Config{Level: "info", Format: "text", Output: buf})

		l.Info("test message")
		output := buf.String()
		assert.Contains(t, output, "test message")
		assert.False(t, strings.HasPrefix(output, "{"))
	})
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		logFunc func(*zap.Logger, string)
		logged  bool
	}{
		{"debug", func(l *zap.Logger, msg string) { l.Debug(msg) }, true},
		{"info", func(l *zap.Logger, msg string) { l.Debug(msg) }, false},
		{"warn", func(l *zap.Logger, msg string) { l.Info(msg) }, false},
		{"warn", func(l *zap.Logger, msg string) { l.Warn(msg) }, true},
		{"error", func(l *zap.Logger, msg string) { l.Warn(msg) }, false},
		{"bogus", func(l *zap.Logger, msg string) { l.Info(msg) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			l := New(&Config{Level: tt.level, Format: "json", Output: buf})
			tt.logFunc(l, "hello")
			assert.Equal(t, tt.logged, strings.Contains(buf.String(), "hello"))
		})
	}
}
