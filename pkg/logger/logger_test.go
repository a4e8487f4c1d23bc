package logger_test

import (
	"context"
	"testing"

	"sitepaths/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup(t *testing.T) {
	for _, env := range []string{logger.DevelopmentEnvironment, logger.ProductionEnvironment} {
		t.Run(env, func(t *testing.T) {
			require.NotPanics(t, func() { logger.Setup(env) })
			require.NotNil(t, logger.Get(context.Background()))
		})
	}
}

func TestIsDebug(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment)
	require.True(t, logger.IsDebug(context.Background()))

	logger.Setup(logger.ProductionEnvironment)
	require.False(t, logger.IsDebug(context.Background()))
}

func TestWithFieldsCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("domain", "example.com"))

	logger.Info(ctx, "crawl finished", zap.Int("paths", 3))
	logger.Debug(ctx, "fetch failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "crawl finished", entries[0].Message)
	require.Equal(t, "example.com", entries[0].ContextMap()["domain"])
	require.EqualValues(t, 3, entries[0].ContextMap()["paths"])
	require.Equal(t, zapcore.DebugLevel, entries[1].Level)
	require.Equal(t, "example.com", entries[1].ContextMap()["domain"])
}

func TestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	require.Equal(t, 3, logs.Len())
	require.False(t, logger.IsDebug(ctx))
}
