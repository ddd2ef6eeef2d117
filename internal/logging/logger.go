package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured, leveled logging for the service. It wraps
// zap but keeps the call shape the rest of the codebase already expects:
// a message followed by alternating key/value pairs.
type Logger struct {
	prefix string
	base   *zap.Logger
}

// NewLogger creates a new logger scoped under prefix (typically a
// component name such as "scan" or "httpapi").
func NewLogger(prefix string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{
		prefix: prefix,
		base:   base.With(zap.String("component", prefix)),
	}
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.base.Sugar().Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.base.Sugar().Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.base.Sugar().Errorw(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.base.Sugar().Debugw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// With returns a derived logger carrying the given key/value pairs on
// every subsequent entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		prefix: l.prefix,
		base:   l.base.Sugar().With(keysAndValues...).Desugar(),
	}
}
