package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal verifies the context helpers.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Same(t, Logger(), FromContext(ctx))

	named := WithName(ctx, "scale-controller")
	require.NotSame(t, Logger(), FromContext(named))

	scoped := WithKV(named, "alarm_name", "scale-up-small-to-medium")
	require.NotSame(t, FromContext(named), FromContext(scoped))

	custom := zap.NewNop().Sugar()
	require.Same(t, custom, FromContext(ToContext(ctx, custom)))
}

// TestNewJSON builds a JSON logger at the requested level.
func TestNewJSON(t *testing.T) {
	t.Parallel()

	l := NewJSON(zapcore.WarnLevel)
	require.NotNil(t, l)
	require.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
	require.True(t, l.Desugar().Core().Enabled(zapcore.ErrorLevel))
}

// TestWithMinLevel overrides the level for a single context.
func TestWithMinLevel(t *testing.T) {
	t.Parallel()

	ctx := ToContext(context.Background(), New(zapcore.InfoLevel))
	require.False(t, FromContext(ctx).Desugar().Core().Enabled(zapcore.DebugLevel))

	debug := WithMinLevel(ctx, zapcore.DebugLevel)
	require.True(t, FromContext(debug).Desugar().Core().Enabled(zapcore.DebugLevel))

	quiet := WithMinLevel(ctx, zapcore.ErrorLevel)
	require.False(t, FromContext(quiet).Desugar().Core().Enabled(zapcore.WarnLevel))
}
