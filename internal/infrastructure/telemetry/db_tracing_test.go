package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, a := range span.Attributes() {
		out[a.Key] = a.Value
	}
	return out
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL, "query variables stay out of spans by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestNewDBTracingPlugin_DefaultsThreshold(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())

	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
}

func TestRegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()).RegisterOtelGorm(db))
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestRegisterOtelGorm_TracesQueries(t *testing.T) {
	tp, sr := setupRecorder(t)
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := setupTestDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	require.NoError(t, NewDBTracingPlugin(cfg, zap.NewNop()).RegisterOtelGorm(db))
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "order.create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var row tracedRow
	require.NoError(t, db.WithContext(ctx).First(&row, "name = ?", "a").Error)
	parent.End()

	spans := sr.Ended()
	require.Greater(t, len(spans), 1)
	for _, s := range spans {
		assert.Equal(t, parent.SpanContext().TraceID(), s.SpanContext().TraceID())
	}
}

func TestAfterCallback(t *testing.T) {
	tp, sr := setupRecorder(t)
	db := setupTestDB(t)

	t.Run("annotates rows and table", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: time.Hour}, zap.NewNop())
		ctx, span := tp.Tracer("test").Start(context.Background(), "rows")
		tx := db.WithContext(ctx)
		tx.Statement.Table = "orders"
		tx.Statement.RowsAffected = 3

		p.after(tx)
		span.End()

		got := sr.Ended()[len(sr.Ended())-1]
		attrs := spanAttrs(got)
		assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
		assert.Equal(t, "orders", attrs["db.sql.table"].AsString())
		_, slow := attrs["db.slow_query"]
		assert.False(t, slow)
		assert.Equal(t, codes.Unset, got.Status().Code)
	})

	t.Run("marks errors except record not found", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: time.Hour}, zap.NewNop())

		ctx, span := tp.Tracer("test").Start(context.Background(), "failing")
		tx := db.WithContext(ctx)
		_ = tx.AddError(errors.New("connection refused"))
		p.after(tx)
		span.End()
		got := sr.Ended()[len(sr.Ended())-1]
		assert.Equal(t, codes.Error, got.Status().Code)
		assert.Equal(t, "connection refused", got.Status().Description)

		ctx, span = tp.Tracer("test").Start(context.Background(), "missing")
		tx = db.WithContext(ctx)
		_ = tx.AddError(gorm.ErrRecordNotFound)
		p.after(tx)
		span.End()
		assert.Equal(t, codes.Unset, sr.Ended()[len(sr.Ended())-1].Status().Code)
	})

	t.Run("flags slow queries", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{SlowQueryThresh: time.Nanosecond}, zap.NewNop())
		ctx, span := tp.Tracer("test").Start(context.Background(), "slow")
		tx := db.WithContext(WithQueryStartTime(ctx))
		time.Sleep(2 * time.Millisecond)

		p.after(tx)
		span.End()

		got := sr.Ended()[len(sr.Ended())-1]
		assert.True(t, spanAttrs(got)["db.slow_query"].AsBool())
		require.Len(t, got.Events(), 1)
		assert.Equal(t, "slow_query_warning", got.Events()[0].Name)
	})

	t.Run("ignores contexts without a recording span", func(t *testing.T) {
		p := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())
		tx := db.WithContext(context.Background())

		assert.NotPanics(t, func() { p.after(tx) })
	})
}

func TestBeforeCallback_StampsStartTime(t *testing.T) {
	db := setupTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())
	tx := db.WithContext(context.Background())

	p.before(tx)

	start, ok := tx.Statement.Context.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), start, time.Second)
}
