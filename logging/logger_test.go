package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{"debug": LogLevelDebug, "INFO": LogLevelInfo, "": LogLevelInfo, "warning": LogLevelWarn, "error": LogLevelError}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, LogLevelInfo, got)
}

func TestSessionLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("runner").
		WithSession("s-1").
		With("window", 10)

	l.Info("Turn appended", "role", "user")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Turn appended", entry["msg"])
	assert.Equal(t, "runner", entry["component"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, float64(10), entry["window"])
	assert.Equal(t, "user", entry["role"])
}

func TestSessionLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.LogEviction(1, 10)
	assert.Empty(t, buf.String())

	l.LogIngestion("ask_structured", 1, errors.New("bad payload"))
	assert.Contains(t, buf.String(), "Ingestion degraded")
}

func TestSessionLogger_DomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})

	l.LogModelCall("gemini-2.5-flash", 42, time.Second, nil)
	l.LogToolCall("flights_between", time.Millisecond, errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "Model call completed")
	assert.Contains(t, out, "token_count=42")
	assert.Contains(t, out, "Tool execution failed")
	assert.True(t, strings.Contains(out, "tool_name=flights_between"))
}

func TestSessionLogger_CopyOnWith(t *testing.T) {
	base := NewSlogLogger(LogLevelInfo, "json", false)
	child := base.With("k", "v")
	assert.Empty(t, base.attrs)
	assert.Equal(t, "v", child.attrs["k"])
}

func TestCharmAdapter(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewCharmAdapter(&buf, LogLevelInfo, "tripchat")

	l.Debug("hidden")
	l.Warn("Replayed turn is malformed", "line", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Replayed turn is malformed")
	assert.Contains(t, out, "tripchat")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Error("ignored", "k", "v")
}
