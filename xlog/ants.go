package xlog

import (
	antsv2 "github.com/panjf2000/ants/v2"
	"go.uber.org/zap/zapcore"
)

var _ antsv2.Logger = (*AntsXLogger)(nil)

// AntsXLogger receives the ants pool messages, the worker panics mostly.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{
		logger: newComponentXLogger(logger, "Ants", nil),
	}
}
