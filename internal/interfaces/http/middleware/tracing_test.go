package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/printmarket/backend/internal/infrastructure/logger"
)

func newTracedEngine(t *testing.T, status int) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r := gin.New()
	r.Use(RequestID())
	r.Use(Tracing(TracingConfig{ServiceName: "printmarket-test", Enabled: true, TracerProvider: tp}))
	r.Use(SpanErrorMarker())
	r.Use(func(c *gin.Context) {
		c.Set(logger.GinUserIDKey, "buyer-1")
		c.Next()
	})
	r.Use(TracingAttributeInjector())
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(status) })
	return r, sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing(t *testing.T) {
	t.Run("span carries route and request attributes", func(t *testing.T) {
		r, sr := newTracedEngine(t, http.StatusOK)
		req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
		req.Header.Set(HeaderRequestID, "req-trace")
		r.ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/orders/:id")

		requestID, ok := spanAttr(spans[0], "request_id")
		require.True(t, ok)
		assert.Equal(t, "req-trace", requestID.AsString())
		userID, ok := spanAttr(spans[0], "user_id")
		require.True(t, ok)
		assert.Equal(t, "buyer-1", userID.AsString())
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("conflict marks span as error", func(t *testing.T) {
		r, sr := newTracedEngine(t, http.StatusConflict)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "Conflict", spans[0].Status().Description)
	})

	t.Run("disabled tracing passes through", func(t *testing.T) {
		r := gin.New()
		r.Use(Tracing(TracingConfig{Enabled: false}))
		r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestSpanErrorMessage(t *testing.T) {
	tests := map[int]string{
		http.StatusInternalServerError: "Internal Server Error",
		http.StatusServiceUnavailable:  "Internal Server Error",
		http.StatusUnprocessableEntity: "Unprocessable Entity",
		http.StatusUnauthorized:        "Unauthorized",
		http.StatusForbidden:           "Forbidden",
		http.StatusNotFound:            "Not Found",
		http.StatusBadRequest:          "Client Error",
	}
	for status, want := range tests {
		assert.Equal(t, want, spanErrorMessage(status), "status %d", status)
	}
}
