package logtrace

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	// CorrelationIDKey is the context key holding the per-operation correlation ID.
	CorrelationIDKey ctxKey = "correlation_id"
	// OriginKey is the context key holding the logical origin of a call chain.
	OriginKey ctxKey = "origin"

	unknownValue = "unknown"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Setup initializes the package logger. env "dev" selects a human readable console
// encoder, anything else emits JSON. Logs always go to stderr so that the
// interactive console on stdout is never interleaved with log lines.
func Setup(serviceName, env string, level slog.Level) {
	var cfg zap.Config
	if strings.EqualFold(env, "dev") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true

	built, err := cfg.Build(
		zap.AddCallerSkip(2),
		zap.Fields(zap.String("service", serviceName)),
	)
	if err != nil {
		// Fall back to a bare stderr core.
		built = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			toZapLevel(level),
		))
	}

	mu.Lock()
	old := logger
	logger = built
	mu.Unlock()
	_ = old.Sync()
}

// SetLogger replaces the package logger. Intended for tests (zaptest / observer cores).
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	_ = l.Sync()
}

// ParseLevel converts a textual level (debug, info, warn, error) into a slog.Level.
// Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func toZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// CtxWithCorrelationID stores the correlation ID in the context.
func CtxWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// CtxWithOrigin stores the origin in the context.
func CtxWithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, OriginKey, origin)
}

// CorrelationIDFromContext returns the correlation ID or "unknown".
func CorrelationIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, CorrelationIDKey)
}

// OriginFromContext returns the origin or "unknown".
func OriginFromContext(ctx context.Context) string {
	return stringFromContext(ctx, OriginKey)
}

func stringFromContext(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return unknownValue
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v
	}
	return unknownValue
}

// Debug logs a debug message with structured fields.
func Debug(ctx context.Context, message string, fields Fields) {
	logWithLevel(zapcore.DebugLevel, ctx, message, fields)
}

// Info logs an info message with structured fields.
func Info(ctx context.Context, message string, fields Fields) {
	logWithLevel(zapcore.InfoLevel, ctx, message, fields)
}

// Warn logs a warning message with structured fields.
func Warn(ctx context.Context, message string, fields Fields) {
	logWithLevel(zapcore.WarnLevel, ctx, message, fields)
}

// Error logs an error message with structured fields.
func Error(ctx context.Context, message string, fields Fields) {
	logWithLevel(zapcore.ErrorLevel, ctx, message, fields)
}

// Fatal logs a message and exits the process.
func Fatal(ctx context.Context, message string, fields Fields) {
	logWithLevel(zapcore.FatalLevel, ctx, message, fields)
}

func logWithLevel(level zapcore.Level, ctx context.Context, message string, fields Fields) {
	mu.RLock()
	l := logger
	mu.RUnlock()

	if ce := l.Check(level, message); ce != nil {
		ce.Write(zapFields(ctx, fields)...)
	}
}

func zapFields(ctx context.Context, fields Fields) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+2)
	if cid := CorrelationIDFromContext(ctx); cid != unknownValue {
		out = append(out, zap.String(FieldCorrelationID, cid))
	}
	if origin := OriginFromContext(ctx); origin != unknownValue {
		out = append(out, zap.String(FieldOrigin, origin))
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
