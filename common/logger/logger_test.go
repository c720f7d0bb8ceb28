package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestJSONLoggerWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	log.WithContext(ctx).Info("lookup", "identity", "alice")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "lookup", entry["msg"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "alice", entry["identity"])
}

func TestWithContextWithoutRequestID(t *testing.T) {
	log := NewWithWriter(&bytes.Buffer{}, "info", "json")
	assert.Same(t, log, log.WithContext(context.Background()))
}

func TestErrorAddsStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.WithFields(map[string]any{"op": "acquire"}).Error("store failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "acquire", entry["op"])
	assert.NotEmpty(t, entry["stack"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestTextFormatUsesTint(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "text")
	log.Info("started", "port", 8080)
	assert.Contains(t, buf.String(), "started")
	assert.Contains(t, buf.String(), "8080")
}
