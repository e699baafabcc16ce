package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: "series", Output: &buf})
	l.With("period", "last_365_days").Error("query failed", "accounts", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "query failed", rec["msg"])
	assert.Equal(t, "series", rec["component"])
	assert.Equal(t, "last_365_days", rec["period"])
	assert.EqualValues(t, 2, rec["accounts"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf, Component: "cache"})
	l.Debug("miss")
	l.Info("hit")
	assert.Empty(t, buf.String())

	l.Warn("evicted")
	assert.Contains(t, buf.String(), "component=cache")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf, Component: "app"}).WithComponent("ledger")
	assert.Equal(t, "ledger", l.Component())
	l.Info("opened")
	assert.Contains(t, buf.String(), "component=ledger")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("trace")
	assert.Error(t, err)
}
