package xlog

import (
	"strings"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAntsXLogger_ParentLogLevelChanged(t *testing.T) {
	var nilLogger *AntsXLogger
	nilLogger.Printf("test %d", 123)

	w := &testMemOutWriter{}
	parentLogger := newTestXLogger(w)
	logger := NewAntsXLogger(parentLogger)

	parentLogger.IncreaseLogLevel(zapcore.InfoLevel)
	logger.Printf("test %d", 123)
	parentLogger.IncreaseLogLevel(zapcore.FatalLevel)
	logger.Printf("test %d", 456)

	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "test 123", lines[0]["msg"])
	require.Equal(t, "Ants", lines[0]["component"])
	require.Equal(t, "ERROR", lines[0]["lvl"])
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	w := &testMemOutWriter{}
	parentLogger := newTestXLogger(w)

	p, err := antsv2.NewPool(4, antsv2.WithLogger(NewAntsXLogger(parentLogger)))
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() {
		panic("xlogger panic in ants pool")
	}))
	require.Eventually(t, func() bool {
		return strings.Contains(w.String(), "worker exits from panic: xlogger panic in ants pool")
	}, 2*time.Second, 10*time.Millisecond)
	require.Contains(t, w.String(), "\"component\":\"Ants\"")
}
