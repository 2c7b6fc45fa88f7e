package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("duplicate hwmon name", "name", "nct6775")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "duplicate hwmon name", entry["msg"])
	assert.Equal(t, "nct6775", entry["name"])
}

func TestNewLogger_Terminal(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "").Info("PWM applied", "pwm", 180)

	assert.Contains(t, buf.String(), "PWM applied")
	assert.Contains(t, buf.String(), "pwm=180")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestCaptureError_Disabled(t *testing.T) {
	assert.False(t, Enabled())
	CaptureError(assert.AnError, map[string]string{"component": "test"}, nil)
}
