// Package logger wraps log/slog with the printf-style helpers used across dotrep.
//
// Diagnostic messages are part of the observable behavior of the importers:
// tests assert on the rendered message text, so callers format the human
// message themselves and attach structured attributes with With.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Logger is a thin printf-style facade over *slog.Logger.
type Logger struct {
	sl *slog.Logger
}

// New returns a Logger writing to h.
func New(h slog.Handler) *Logger {
	return &Logger{sl: slog.New(h)}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Options configures Default.
type Options struct {
	Level   string
	NoColor bool
	Out     io.Writer
}

// Default builds the process logger: tint on a terminal, plain text otherwise.
// DOTREP_DEBUG forces the debug level.
func Default(opts Options) *Logger {
	var out io.Writer = os.Stderr
	if opts.Out != nil {
		out = opts.Out
	}
	lvl := ParseLevel(opts.Level)
	if os.Getenv("DOTREP_DEBUG") != "" {
		lvl = slog.LevelDebug
	}

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return New(tint.NewHandler(out, &tint.Options{
			Level:   lvl,
			NoColor: opts.NoColor,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return a
			},
		}))
	}
	return New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				return slog.String(a.Key, strings.ToLower(a.Value.String()))
			}
			return a
		},
	}))
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "err", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{sl: l.sl.With(args...)}
}

// Enabled reports whether level would be emitted.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.sl.Enabled(context.Background(), level)
}

func (l *Logger) Debugf(format string, a ...any) { l.logf(slog.LevelDebug, format, a...) }

func (l *Logger) Infof(format string, a ...any) { l.logf(slog.LevelInfo, format, a...) }

func (l *Logger) Warningf(format string, a ...any) { l.logf(slog.LevelWarn, format, a...) }

func (l *Logger) Errorf(format string, a ...any) { l.logf(slog.LevelError, format, a...) }

func (l *Logger) logf(level slog.Level, format string, a ...any) {
	if l == nil || !l.Enabled(level) {
		return
	}
	l.sl.Log(context.Background(), level, fmt.Sprintf(format, a...))
}
