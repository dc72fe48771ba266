package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseLevel(tc.in), "level %q", tc.in)
	}
}

func TestNewLogger_WritesModuleAndVersion(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "vidtube-api", "v0.1.0", "info")

	l.Info("server started", "port", 8000)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "server started", rec["msg"])
	assert.Equal(t, "vidtube-api", rec["module"])
	assert.Equal(t, "v0.1.0", rec["version"])
	assert.EqualValues(t, 8000, rec["port"])
}

func TestNewLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "m", "v", "warn")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWriter_EmitsRecord(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "m", "v", "info")

	_, err := Writer(l, slog.LevelInfo).Write([]byte("from echo\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "from echo")
}
