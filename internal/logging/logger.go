package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// New creates the JSON logger shared by every component of the agent and
// installs it as the slog default.
func New(service string) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, service))
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newHandler(w io.Writer, service string) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}).WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("hostname", hostname()),
	})
}

// Info logs an informational event for action.
func Info(ctx context.Context, log *slog.Logger, action, message string, args ...any) {
	log.InfoContext(ctx, message, append([]any{"action", action}, args...)...)
}

// Warn logs a recoverable failure for action.
func Warn(ctx context.Context, log *slog.Logger, action, message string, err error, args ...any) {
	args = append([]any{"action", action}, args...)
	if err != nil {
		args = append(args, "error", err.Error())
	}
	log.WarnContext(ctx, message, args...)
}

// Error logs a failure for action together with a short call stack.
func Error(ctx context.Context, log *slog.Logger, action, message string, err error, args ...any) {
	args = append([]any{"action", action}, args...)
	if err != nil {
		args = append(args, slog.Group("error",
			"msg", err.Error(),
			"stack", shortStack(3, 8),
		))
	}
	log.ErrorContext(ctx, message, args...)
}

func shortStack(skip, max int) string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	count := 0
	for {
		f, more := frames.Next()
		fn := f.Function
		if strings.HasPrefix(fn, "runtime.") || strings.Contains(fn, "/logging.") {
			if !more {
				break
			}
			continue
		}
		if i := strings.LastIndex(fn, "."); i >= 0 && i+1 < len(fn) {
			fn = fn[i+1:]
		}
		fmt.Fprintf(&b, "%s %s:%d\n", fn, filepath.Base(f.File), f.Line)
		count++
		if count >= max || !more {
			break
		}
	}
	return strings.TrimSpace(b.String())
}

func hostname() string {
	name, _ := os.Hostname()
	return name
}
