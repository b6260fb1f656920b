package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var errLockTimeout = errors.New("canceling statement due to lock timeout")

func orderQuery() (string, int64) {
	return `SELECT * FROM "orders" WHERE id = 'o-1' FOR UPDATE`, 1
}

func TestNewGormLogger_Options(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Warn,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, gormlogger.Warn, gl.logLevel)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	changed, ok := gl.LogMode(gormlogger.Info).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Info, changed.logLevel)
	assert.Equal(t, gormlogger.Warn, gl.logLevel, "LogMode must not mutate the receiver")
}

func TestGormLogger_Printf(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "suppressed %d", 1)
	gl.Warn(ctx, "migrating %s", "orders")
	gl.Error(ctx, "failed %s", "orders")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "migrating orders", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		begin   time.Time
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{"error", gormlogger.Error, nil, time.Now(), errors.New("connection reset"), "SQL Error", zapcore.ErrorLevel},
		{"lock contention is a warning", gormlogger.Error,
			[]GormLoggerOption{WithContentionClassifier(func(err error) bool { return errors.Is(err, errLockTimeout) })},
			time.Now(), errLockTimeout, "SQL lock contention", zapcore.WarnLevel},
		{"slow query", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(time.Nanosecond)},
			time.Now().Add(-time.Second), nil, "SLOW SQL >= 1ns", zapcore.WarnLevel},
		{"normal query at info", gormlogger.Info, nil, time.Now(), nil, "SQL Query", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			gl := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			gl.Trace(context.Background(), tt.begin, orderQuery, tt.err)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLvl, entries[0].Level)
			assert.Contains(t, entries[0].ContextMap()["sql"], "FOR UPDATE")
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := context.Background()

	NewGormLogger(zap.New(core), gormlogger.Silent).Trace(ctx, time.Now(), orderQuery, errors.New("x"))
	NewGormLogger(zap.New(core), gormlogger.Error).Trace(ctx, time.Now(), orderQuery, gormlogger.ErrRecordNotFound)
	NewGormLogger(zap.New(core), gormlogger.Warn).Trace(ctx, time.Now(), orderQuery, nil)

	assert.Zero(t, logs.Len())
}

func TestGormLogger_Trace_CarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-42")

	NewGormLogger(zap.New(core), gormlogger.Info).Trace(ctx, time.Now(), orderQuery, nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}

var _ gormlogger.Interface = (*GormLogger)(nil)
