package xlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func TestGormXLogger_Sqlite(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewGormXLogger(newTestXLogger(w),
		WithGormXLoggerIgnoreRecord404Err(),
		WithGormXLoggerLogLevel(glogger.Info),
		WithGormXLoggerSlowThreshold(time.Minute),
	)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger})
	require.NoError(t, err)

	type xlogRecord struct {
		ID   uint `gorm:"primaryKey"`
		Name string
	}
	require.NoError(t, db.AutoMigrate(&xlogRecord{}))
	require.NoError(t, db.Create(&xlogRecord{Name: "a"}).Error)
	var rec xlogRecord
	require.ErrorIs(t, db.First(&rec, 100).Error, gorm.ErrRecordNotFound)

	lines := w.lines(t)
	require.NotEmpty(t, lines)
	inserted := false
	for _, line := range lines {
		require.Equal(t, "Gorm", line["component"])
		require.NotEqual(t, "sql error", line["msg"])
		if sql, _ := line["sql"].(string); len(sql) > 0 && line["msg"] == "sql" {
			inserted = inserted || (len(sql) >= 6 && sql[:6] == "INSERT")
		}
	}
	require.True(t, inserted)
}

func TestGormXLogger_Trace(t *testing.T) {
	require.Equal(t, zap.ErrorLevel, getLogLevelOrDefaultForGorm(glogger.Error))
	require.Equal(t, zap.WarnLevel, getLogLevelOrDefaultForGorm(glogger.Warn))
	require.Equal(t, zap.InfoLevel, getLogLevelOrDefaultForGorm(glogger.Info))
	require.Equal(t, zap.DebugLevel, getLogLevelOrDefaultForGorm(glogger.Silent))

	w := &testMemOutWriter{}
	logger := NewGormXLogger(newTestXLogger(w), WithGormXLoggerSlowThreshold(200*time.Millisecond))
	ctx := context.TODO()
	sqlFn := func(rows int64) func() (string, int64) {
		return func() (string, int64) {
			return "insert into abc values(1,2,3)", rows
		}
	}

	// The default level is warn.
	logger.Info(ctx, "sql %s", "dropped")
	logger.Trace(ctx, time.Now(), sqlFn(1), nil)
	require.Empty(t, w.String())

	logger.Warn(ctx, "warn %d", 1)
	logger.Error(ctx, "error %d", 2)
	logger.Trace(ctx, time.Now(), sqlFn(-1), errors.New("insert error"))
	logger.Trace(ctx, time.Now(), sqlFn(1), glogger.ErrRecordNotFound)
	logger.Trace(ctx, time.Now().Add(-time.Second), sqlFn(3), nil)

	lines := w.lines(t)
	require.Len(t, lines, 5)
	require.Equal(t, "warn 1", lines[0]["msg"])
	require.Equal(t, "error 2", lines[1]["msg"])
	require.Equal(t, "sql error", lines[2]["msg"])
	require.Equal(t, "insert error", lines[2]["error"])
	require.Equal(t, "-", lines[2]["rows"])
	require.Equal(t, "sql error", lines[3]["msg"])
	require.Equal(t, float64(1), lines[3]["rows"])
	require.Equal(t, "slow sql", lines[4]["msg"])
	require.Equal(t, float64(3), lines[4]["rows"])

	w.Reset()
	logger.LogMode(glogger.Silent).Trace(ctx, time.Now(), sqlFn(1), errors.New("dropped"))
	require.Empty(t, w.String())
}
