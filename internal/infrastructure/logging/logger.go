package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
)

const serviceName = "remobridge"

// redacted replaces the value of any attribute named in secretKeys.
const redacted = "[REDACTED]"

var secretKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"password":      true,
	"authorization": true,
}

// Logger is the bridge's structured logger. Every entry carries the
// service name and build version. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of the config file.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(destination(cfg.Output), cfg, version)
}

// NewWithWriter is New writing to w instead of the configured stream.
func NewWithWriter(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		ReplaceAttr: redact,
	}
	h := newHandler(cfg.Format, w, opts).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

func destination(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// newHandler picks the text handler for "text" and JSON for anything else.
func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel maps a config level name to slog. Unknown names mean info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// With returns a child logger carrying args on every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component tags a child logger with the subsystem it belongs to.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default logs text at info level to stderr. CLI subcommands use it so
// stdout stays free for their tables.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, "dev")
}

// Discard drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}
