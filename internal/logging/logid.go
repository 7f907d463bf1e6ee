package logging

import (
	"context"

	"cmdrelay/internal/observability"
)

type contextCapable interface {
	WithContext(context.Context) Logger
}

// WithSessionID returns a logger that tags every line with a session id.
func WithSessionID(logger Logger, sessionID string) Logger {
	if IsNil(logger) {
		return Nop()
	}
	if sessionID == "" {
		return logger
	}
	return &sessionLogger{logger: logger, sessionID: sessionID}
}

// FromContext returns logger tagged with the session id found in ctx, if
// any. Structured loggers also pick up the trace id.
func FromContext(ctx context.Context, logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	if capable, ok := logger.(contextCapable); ok {
		return capable.WithContext(ctx)
	}
	return WithSessionID(logger, observability.SessionIDFromContext(ctx))
}

type sessionLogger struct {
	logger    Logger
	sessionID string
}

func (l *sessionLogger) Debug(format string, args ...any) {
	l.logger.Debug(prefixSession(l.sessionID, format), args...)
}

func (l *sessionLogger) Info(format string, args ...any) {
	l.logger.Info(prefixSession(l.sessionID, format), args...)
}

func (l *sessionLogger) Warn(format string, args ...any) {
	l.logger.Warn(prefixSession(l.sessionID, format), args...)
}

func (l *sessionLogger) Error(format string, args ...any) {
	l.logger.Error(prefixSession(l.sessionID, format), args...)
}

func prefixSession(sessionID, format string) string {
	return "session=" + sessionID + " " + format
}
