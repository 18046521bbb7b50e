// Package logging provides the leveled, structured logger used across every
// Corebooks service. It mirrors the mlog.Logger contract so the rest of
// the codebase never imports zap directly.
package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the common interface every component logs through.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Debug(args ...any)
	Debugf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)

	WithFields(fields ...any) Logger

	Sync() error
}

// ZapLogger wraps a zap.SugaredLogger to satisfy Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a production-profile zap logger for the given service name and
// level (one of debug, info, warn, error).
func New(service string, level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{sugar: z.Sugar().With("service", service)}, nil
}

func (l *ZapLogger) Info(args ...any)                  { l.sugar.Info(args...) }
func (l *ZapLogger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *ZapLogger) Error(args ...any)                 { l.sugar.Error(args...) }
func (l *ZapLogger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
func (l *ZapLogger) Warn(args ...any)                  { l.sugar.Warn(args...) }
func (l *ZapLogger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *ZapLogger) Debug(args ...any)                 { l.sugar.Debug(args...) }
func (l *ZapLogger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *ZapLogger) Fatal(args ...any)                 { l.sugar.Fatal(args...) }
func (l *ZapLogger) Fatalf(format string, args ...any) { l.sugar.Fatalf(format, args...) }

// WithFields returns a child logger carrying the given key/value pairs.
func (l *ZapLogger) WithFields(fields ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(fields...)}
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

type ctxKey struct{}

// ContextWithLogger returns a new context carrying logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext recovers the logger stashed in ctx, or a no-op fallback logger.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return noop{}
	}

	if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
		return l
	}

	return noop{}
}

// NewNoop returns a Logger that discards everything, for use as a safe
// zero-value default before a real logger is wired.
func NewNoop() Logger { return noop{} }

// noop is returned when no logger was attached to the context, so callers
// never need a nil check.
type noop struct{}

func (noop) Info(args ...any)                  {}
func (noop) Infof(format string, args ...any)  {}
func (noop) Error(args ...any)                 {}
func (noop) Errorf(format string, args ...any) {}
func (noop) Warn(args ...any)                  {}
func (noop) Warnf(format string, args ...any)  {}
func (noop) Debug(args ...any)                 {}
func (noop) Debugf(format string, args ...any) {}
func (noop) Fatal(args ...any)                 {}
func (noop) Fatalf(format string, args ...any) {}
func (noop) WithFields(fields ...any) Logger   { return noop{} }
func (noop) Sync() error                       { return nil }
