package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the logging surface handed to components. Values of sensitive
// keys are masked before they reach the output.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// Slog exposes the underlying logger for components that take a
	// *slog.Logger. It shares the level and redaction.
	Slog() *slog.Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is one of debug, info, warn (warning), error. Empty means info.
	Level string
	// Format is json (default) or text (console).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// level is shared by every logger built by New, so the level can be
// changed at runtime without rebuilding loggers that components hold.
var level = new(slog.LevelVar)

type slogLogger struct {
	*slog.Logger
}

func (l slogLogger) With(args ...any) Logger {
	return slogLogger{l.Logger.With(args...)}
}

func (l slogLogger) Slog() *slog.Logger {
	return l.Logger
}

// New builds a logger and applies cfg.Level to all loggers.
func New(cfg Config) (Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	h, err := newHandler(out, cfg.Format)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)
	return slogLogger{slog.New(h)}, nil
}

func newHandler(out io.Writer, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	switch strings.ToLower(format) {
	case "", "json":
		return slog.NewJSONHandler(out, opts), nil
	case "text", "console":
		return slog.NewTextHandler(out, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// SetLevel changes the level of every logger built by New and reports
// whether it differed from the current one.
func SetLevel(name string) (changed bool, err error) {
	lvl, err := parseLevel(name)
	if err != nil {
		return false, err
	}
	if level.Level() == lvl {
		return false, nil
	}
	level.Set(lvl)
	return true, nil
}

// GetLevel returns the current level name (debug, info, warn, error).
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

var std atomic.Pointer[slogLogger]

func init() {
	h, _ := newHandler(os.Stderr, "json")
	std.Store(&slogLogger{slog.New(h)})
}

// SetDefault replaces the fallback logger used when a context carries none,
// and installs it as the slog default.
func SetDefault(l Logger) {
	sl := slogLogger{l.Slog()}
	std.Store(&sl)
	slog.SetDefault(sl.Logger)
}

// Default returns the fallback logger.
func Default() Logger {
	return *std.Load()
}
