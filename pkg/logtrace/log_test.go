package logtrace

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogIncludesContextAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	ctx := CtxWithCorrelationID(context.Background(), "cid-1")
	ctx = CtxWithOrigin(ctx, "shell")

	Info(ctx, "document notarized", Fields{FieldTxHash: "0xabc", FieldBlockNumber: uint64(7)})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "document notarized", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "cid-1", fields[FieldCorrelationID])
	assert.Equal(t, "shell", fields[FieldOrigin])
	assert.Equal(t, "0xabc", fields[FieldTxHash])
	assert.Equal(t, uint64(7), fields[FieldBlockNumber])
}

func TestLogRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Debug(context.Background(), "hidden", nil)
	Info(context.Background(), "hidden", nil)
	Warn(context.Background(), "shown", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestContextDefaults(t *testing.T) {
	assert.Equal(t, "unknown", CorrelationIDFromContext(context.Background()))
	assert.Equal(t, "unknown", OriginFromContext(context.TODO()))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithFieldsCopies(t *testing.T) {
	base := Fields{"a": 1}
	merged := WithFields(base, Fields{"b": 2})

	assert.Equal(t, Fields{"a": 1, "b": 2}, merged)
	assert.Equal(t, Fields{"a": 1}, base)
}
