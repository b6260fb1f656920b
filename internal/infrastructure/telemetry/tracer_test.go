package telemetry_test

import (
	"context"
	"testing"

	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewConfig(t *testing.T) {
	cfg := telemetry.NewConfig(config.TelemetryConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "printmarket-orders",
		Insecure:          true,
		DBTraceEnabled:    true,
	})

	assert.Equal(t, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		SamplingRatio:     0.25,
		ServiceName:       "printmarket-orders",
		Insecure:          true,
	}, cfg)
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "test-service",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, cfg, tp.GetConfig())

	// a no-op tracer still hands out usable spans
	_, span := tp.Tracer("test").Start(ctx, "noop")
	span.End()

	assert.NoError(t, tp.ForceFlush(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, tp.Shutdown(cancelled))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "test-service",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}
