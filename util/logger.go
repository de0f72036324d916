// Package util provides low-level helpers shared by all other packages.
package util

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// levelVerbose sits between slog's Info and Debug.
const levelVerbose = slog.Level(-2)

// Attribute keys used across the server so log lines can be grepped
// and parsed consistently.
const (
	KeyComponent  = "component"
	KeyRemoteAddr = "remote_addr"
)

// Logger writes levelled messages through a log/slog handler.  The
// printf-style methods map onto slog levels: Error, Warn, Info,
// Verbose (between Info and Debug) and Debug.
type Logger struct {
	level      LogLevel
	slog       *slog.Logger
	timestamps *atomic.Bool
}

// NewLogger returns a text Logger on stderr that prints messages at or
// below the given verbosity (0 = quiet, 1 = normal, 2 = verbose,
// 3 = debug).
func NewLogger(verbosity int) *Logger {
	return NewLoggerWithWriter(verbosity, "text", os.Stderr)
}

// NewLoggerWithWriter returns a Logger writing to w in the given format
// ("text" or "json").
func NewLoggerWithWriter(verbosity int, format string, w io.Writer) *Logger {
	ts := &atomic.Bool{}
	ts.Store(verbosity >= int(LogDebug)) // auto-enable timestamps in debug mode

	opts := &slog.HandlerOptions{
		Level: slogLevel(LogLevel(verbosity)),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if !ts.Load() {
					return slog.Attr{}
				}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelName(lvl))
				}
			}
			return a
		},
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		level:      LogLevel(verbosity),
		slog:       slog.New(h),
		timestamps: ts,
	}
}

// NopLogger returns a logger that discards all output.
func NopLogger() *Logger {
	return NewLoggerWithWriter(int(LogQuiet), "text", io.Discard)
}

// SetTimestamps enables or disables timestamps.
func (l *Logger) SetTimestamps(on bool) { l.timestamps.Store(on) }

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// With returns a child logger that adds the given key/value pairs to
// every message.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		level:      l.level,
		slog:       l.slog.With(args...),
		timestamps: l.timestamps,
	}
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(slog.LevelInfo, format, args...)
}

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(slog.LevelWarn, format, args...)
}

// Verbose prints when verbosity ≥ 2.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.write(levelVerbose, format, args...)
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(slog.LevelDebug, format, args...)
}

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(slog.LevelError, format, args...)
}

func (l *Logger) write(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, fmt.Sprintf(format, args...))
}

func slogLevel(v LogLevel) slog.Level {
	switch {
	case v <= LogQuiet:
		return slog.LevelError
	case v == LogNormal:
		return slog.LevelInfo
	case v == LogVerbose:
		return levelVerbose
	default:
		return slog.LevelDebug
	}
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	case l >= levelVerbose:
		return "VRB"
	default:
		return "DBG"
	}
}
