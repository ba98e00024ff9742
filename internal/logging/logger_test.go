package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONOutputCarriesComponentAndError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Component: "live", Output: &buf})

	l.WithError(errors.New("boom")).Warn("snapshot failed", "topic", "units")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "live", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "units", entry["topic"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestNamed(t *testing.T) {
	l := Discard().Named("session")
	assert.Equal(t, "session", l.Component())
	assert.Same(t, l, l.WithError(nil))
}
