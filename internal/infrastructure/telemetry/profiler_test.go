package telemetry_test

import (
	"testing"

	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestNewProfilerConfig(t *testing.T) {
	cfg := telemetry.NewProfilerConfig(config.TelemetryConfig{
		ProfilingEnabled: true,
		ProfilingServer:  "http://pyroscope:4040",
		ServiceName:      "printmarket-orders",
	})

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "http://pyroscope:4040", cfg.ServerAddress)
	assert.Equal(t, "printmarket-orders", cfg.ApplicationName)
	assert.True(t, cfg.MutexProfiles)
}

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := telemetry.NewProfiler(telemetry.ProfilerConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     telemetry.ProfilerConfig
		wantErr string
	}{
		{
			name:    "missing server address",
			cfg:     telemetry.ProfilerConfig{Enabled: true, ApplicationName: "printmarket-orders"},
			wantErr: "server address is required",
		},
		{
			name:    "missing application name",
			cfg:     telemetry.ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"},
			wantErr: "application name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := telemetry.NewProfiler(tt.cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, p)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTracerProvider_EnableSpanProfiles_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(t.Context(), telemetry.Config{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)

	before := otel.GetTracerProvider()
	tp.EnableSpanProfiles()
	assert.Equal(t, before, otel.GetTracerProvider())
}
