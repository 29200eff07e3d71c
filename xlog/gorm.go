package xlog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	glogger "gorm.io/gorm/logger"
	gutils "gorm.io/gorm/utils"
)

var _ glogger.Interface = (*GormXLogger)(nil)

type GormXLogger struct {
	logger              XLogger
	cfg                 glogger.Config
	dynamicLevelEnabler zap.AtomicLevel
	gormLevel           atomic.Int32
}

func (l *GormXLogger) level() glogger.LogLevel {
	return glogger.LogLevel(l.gormLevel.Load())
}

func (l *GormXLogger) LogMode(lvl glogger.LogLevel) glogger.Interface {
	l.gormLevel.Store(int32(lvl))
	l.dynamicLevelEnabler.SetLevel(getLogLevelOrDefaultForGorm(lvl))
	return l
}

func (l *GormXLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Error {
		l.logger.ErrorContext(ctx, nil, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	lvl := l.level()
	if lvl <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && lvl >= glogger.Error && (!errors.Is(err, glogger.ErrRecordNotFound) || !l.cfg.IgnoreRecordNotFoundError):
		l.logger.ErrorContext(ctx, err, "sql error", traceFields(elapsed, fc)...)
	case l.cfg.SlowThreshold != 0 && elapsed > l.cfg.SlowThreshold && lvl >= glogger.Warn:
		fields := append(traceFields(elapsed, fc), zap.Duration("threshold", l.cfg.SlowThreshold))
		l.logger.WarnContext(ctx, "slow sql", fields...)
	case lvl == glogger.Info:
		l.logger.InfoContext(ctx, "sql", traceFields(elapsed, fc)...)
	}
}

// traceFields reports -1 rows as "-" the way the gorm default logger does.
func traceFields(elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	rowsField := zap.Int64("rows", rows)
	if rows < 0 {
		rowsField = zap.String("rows", "-")
	}
	return []zap.Field{
		zap.String("fileAndLine", gutils.FileWithLineNum()),
		rowsField,
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
	}
}

func NewGormXLogger(logger XLogger, opts ...GormXLoggerOption) *GormXLogger {
	gl := &GormXLogger{}
	for _, o := range opts {
		o(&gl.cfg)
	}
	if gl.cfg.SlowThreshold <= 0 {
		gl.cfg.SlowThreshold = 500 * time.Millisecond
	}
	if gl.cfg.LogLevel == 0 {
		gl.cfg.LogLevel = glogger.Warn
	}
	gl.gormLevel.Store(int32(gl.cfg.LogLevel))
	gl.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefaultForGorm(gl.cfg.LogLevel))
	gl.logger = newComponentXLogger(logger, "Gorm", gl.dynamicLevelEnabler)
	return gl
}

func getLogLevelOrDefaultForGorm(lvl glogger.LogLevel) zapcore.Level {
	switch lvl {
	case glogger.Info:
		return zapcore.InfoLevel
	case glogger.Warn:
		return zapcore.WarnLevel
	case glogger.Error:
		return zapcore.ErrorLevel
	case glogger.Silent:
		fallthrough
	default:
		return zapcore.DebugLevel
	}
}

type GormXLoggerOption func(*glogger.Config)

func WithGormXLoggerSlowThreshold(threshold time.Duration) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.SlowThreshold = threshold
	}
}

func WithGormXLoggerLogLevel(lvl glogger.LogLevel) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.LogLevel = lvl
	}
}

func WithGormXLoggerIgnoreRecord404Err() GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.IgnoreRecordNotFoundError = true
	}
}
