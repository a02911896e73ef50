package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestDescribeStatement(t *testing.T) {
	cases := []struct {
		sql   string
		verb  string
		table string
	}{
		{`SELECT id, status FROM enrollments WHERE id = $1`, "SELECT", "enrollments"},
		{`INSERT INTO "payments" (handle) VALUES ($1)`, "INSERT", "payments"},
		{`UPDATE enrollments SET payment_status = $1`, "UPDATE", "enrollments"},
		{`DELETE FROM programs WHERE id = $1`, "DELETE", "programs"},
		{`SELECT 1`, "SELECT", ""},
		{``, "UNKNOWN", ""},
	}

	for _, tc := range cases {
		verb, table := describeStatement(tc.sql)
		assert.Equal(t, tc.verb, verb, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig())
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT * FROM enrollments", 0 }

	l.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	l.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, logs.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("connection reset"))
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.Equal(t, 2, logs.Len())

	failed, slow := logs.All()[0], logs.All()[1]
	assert.Equal(t, zap.ErrorLevel, failed.Level)
	assert.Equal(t, "enrollments", failed.ContextMap()["db.table"])
	assert.Equal(t, zap.WarnLevel, slow.Level)
	assert.Equal(t, true, slow.ContextMap()["slow"])
}

func TestGormLoggerSilent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), DefaultGormLoggerConfig()).LogMode(gormlogger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	l.Error(context.Background(), "pool exhausted")
	assert.Zero(t, logs.Len())
}
