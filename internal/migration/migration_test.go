package migration

import (
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(schemaFiles, "sql/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(schemaFiles, "sql/*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs))
}

func TestApplySQLiteIsRepeatable(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, ApplySQLite(conn))
	require.NoError(t, ApplySQLite(conn))

	for _, table := range []string{"organizations", "programs", "member_records", "enrollments", "payments", "webhook_events"} {
		var count int64
		require.NoError(t, conn.Raw("SELECT COUNT(1) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count).Error)
		assert.Equal(t, int64(1), count, table)
	}
}

func TestUpRejectsNilHandle(t *testing.T) {
	assert.Error(t, Up(nil, nil))
}

func TestMigrateLoggerVerbosityFollowsLevel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := migrateLogger{log: zap.New(core)}

	assert.False(t, l.Verbose())
	l.Printf("1/u init (%s)\n", "12ms")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "1/u init (12ms)", logs.All()[0].Message)
}
