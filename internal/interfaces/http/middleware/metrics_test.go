package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
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

func TestHTTPMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := gin.New()
	r.Use(HTTPMetrics(provider.Meter("http.server"), nil))
	r.POST("/orders/:id/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/orders/a/items", strings.NewReader(`{"quantity":1}`))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	data := collectMetrics(t, reader)

	total, ok := data["http_server_request_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	created := attribute.NewSet(
		telemetry.AttrHTTPMethod.String(http.MethodPost),
		telemetry.AttrHTTPRoute.String("/orders/:id/items"),
		telemetry.AttrHTTPStatusCode.Int(http.StatusCreated),
	)
	unknown := attribute.NewSet(
		telemetry.AttrHTTPMethod.String(http.MethodGet),
		telemetry.AttrHTTPRoute.String("unknown"),
		telemetry.AttrHTTPStatusCode.Int(http.StatusNotFound),
	)
	counts := map[attribute.Distinct]int64{}
	for _, dp := range total.DataPoints {
		counts[dp.Attributes.Equivalent()] = dp.Value
	}
	assert.Equal(t, int64(2), counts[created.Equivalent()])
	assert.Equal(t, int64(1), counts[unknown.Equivalent()])

	duration, ok := data["http_server_request_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, duration.DataPoints, 2)

	size, ok := data["http_server_request_size_bytes"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, size.DataPoints, 1)
	assert.Equal(t, uint64(2), size.DataPoints[0].Count)

	active, ok := data["http_server_active_requests"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics(nil, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
