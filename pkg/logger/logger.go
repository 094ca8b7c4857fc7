// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger that the
// request middleware stored in the context, so every log line from a handler
// or service is tagged with the request id:
//
//	log := logger.WithCtx(ctx)
//	log.Info("otp issued", "email", email)
//	// → time=... level=INFO msg="otp issued" request_id=a1b2c3d4 email=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// L is the process-wide base logger. It is usable before Setup is called.
var L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

// Setup replaces L with a handler chosen for env: JSON at INFO for
// production, human-readable text at DEBUG otherwise. Extra handlers (such as
// the Mongo sink) receive every record as well.
func Setup(env string, extra ...slog.Handler) *slog.Logger {
	return SetupWriter(os.Stdout, env, extra...)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, env string, extra ...slog.Handler) *slog.Logger {
	var handler slog.Handler

	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
	return L
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request logger stored in ctx, or L when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
