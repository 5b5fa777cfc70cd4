// Package observability carries the engine's ambient concerns: structured
// logging, Prometheus metrics, and OpenTelemetry tracing.
package observability

import (
	"log/slog"
	"os"
)

// Logger is the collaborator interface used throughout this module, the
// same slog-style keysAndValues shape the teacher defines independently in
// coreengine/kernel/resources.go and elsewhere.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	inner *slog.Logger
}

// NewLogger returns a Logger backed by slog's JSON handler on stderr.
func NewLogger(serviceName string) Logger {
	inner := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", serviceName)
	return &slogLogger{inner: inner}
}

func (l *slogLogger) Debug(msg string, keysAndValues ...any) { l.inner.Debug(msg, keysAndValues...) }
func (l *slogLogger) Info(msg string, keysAndValues ...any)  { l.inner.Info(msg, keysAndValues...) }
func (l *slogLogger) Warn(msg string, keysAndValues ...any)  { l.inner.Warn(msg, keysAndValues...) }
func (l *slogLogger) Error(msg string, keysAndValues ...any) { l.inner.Error(msg, keysAndValues...) }

// NoopLogger discards everything; used by tests and by callers that opt out
// of logging.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}
