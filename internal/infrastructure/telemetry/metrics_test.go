package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// newTestMeter returns a meter backed by a manual reader so tests can collect
// exactly what was recorded.
func newTestMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider.Meter("test"), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

// sumByAttr returns the counter value recorded for the data point carrying kv,
// or the single unlabelled data point when kv is empty.
func sumByAttr(t *testing.T, data metricdata.Aggregation, kv ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)

	want := attribute.NewSet(kv...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNewMetricsConfig(t *testing.T) {
	cfg := telemetry.NewMetricsConfig(config.TelemetryConfig{
		Enabled:           true,
		MetricsEnabled:    true,
		MetricsInterval:   15 * time.Second,
		CollectorEndpoint: "otel:4317",
		ServiceName:       "printmarket-orders",
	})

	assert.Equal(t, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "otel:4317",
		ExportInterval:    15 * time.Second,
		ServiceName:       "printmarket-orders",
	}, cfg)
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "test-service",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, cfg, mp.GetConfig())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    time.Second,
		ServiceName:       "test-service",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, mp.IsEnabled())
	_ = mp.Shutdown(ctx)
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	meter, reader := newTestMeter(t)

	counter, err := telemetry.NewCounter(meter, "requests_total", "Requests", "{requests}")
	require.NoError(t, err)

	counter.Add(ctx, 5, telemetry.AttrHTTPMethod.String("GET"))
	counter.Inc(ctx, telemetry.AttrHTTPMethod.String("GET"))
	counter.Inc(ctx, telemetry.AttrHTTPMethod.String("POST"))

	data := collect(t, reader)["requests_total"]
	assert.Equal(t, int64(6), sumByAttr(t, data, telemetry.AttrHTTPMethod.String("GET")))
	assert.Equal(t, int64(1), sumByAttr(t, data, telemetry.AttrHTTPMethod.String("POST")))
}

func TestHistogram(t *testing.T) {
	ctx := context.Background()
	meter, reader := newTestMeter(t)

	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "request_duration",
		Description: "Request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	h.Record(ctx, 0.2)
	h.RecordDuration(ctx, 300*time.Millisecond)

	hist, ok := collect(t, reader)["request_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 0.5, dp.Sum, 0.0001)
	assert.Equal(t, telemetry.HTTPDurationBuckets, dp.Bounds)
}

func TestGauge(t *testing.T) {
	ctx := context.Background()
	meter, reader := newTestMeter(t)

	g, err := telemetry.NewGauge(meter, "active_requests", "In flight requests", "{requests}")
	require.NoError(t, err)

	g.Record(ctx, 3)
	g.Record(ctx, 1)

	gauge, ok := collect(t, reader)["active_requests"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(1), gauge.DataPoints[0].Value)
}
