// Package logging configures the structured logger shared by the server,
// its middleware and the background consumer.  Output is JSON on stderr
// with module and version attached to every record.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// NewStructuredLogger returns a JSON logger at the given level.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return newLogger(os.Stderr, module, version, level)
}

// SetDefaultStructuredLogger installs the logger as slog's default and
// routes the standard library log package through it.
func SetDefaultStructuredLogger(module, version, level string) *slog.Logger {
	l := NewStructuredLogger(module, version, level)
	slog.SetDefault(l)
	return l
}

// Writer adapts the logger for components that only accept an io.Writer,
// such as echo's built-in logger.  Each write becomes one record.
func Writer(l *slog.Logger, level slog.Level) io.Writer {
	return slog.NewLogLogger(l.Handler(), level).Writer()
}

// StdLogger is Writer for APIs that want a *log.Logger.
func StdLogger(l *slog.Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.Handler(), level)
}

// ParseLevel maps a case-insensitive name to a level; unknown names are INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, module, version, level string) *slog.Logger {
	lvl := ParseLevel(level)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	return slog.New(h).With("module", module, "version", version)
}
