package xlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type testFailedSyncer struct {
	testMemOutWriter
	err error
}

func (w *testFailedSyncer) Sync() error {
	return w.err
}

func newTestCore(ws zapcore.WriteSyncer, lvl zapcore.LevelEnabler) xLogCore {
	return newCommonCore(
		lvl,
		zapcore.NewJSONEncoder,
		ws,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
		componentCoreEncoderCfg,
	)
}

func TestXLogMultiCore(t *testing.T) {
	w1, w2 := &testMemOutWriter{}, &testMemOutWriter{}
	tee := xLogTeeCore(
		newTestCore(w1, zapcore.WarnLevel),
		nil,
		newTestCore(w2, zapcore.DebugLevel),
	)
	require.Len(t, tee, 2)
	require.Equal(t, zapcore.DebugLevel, tee.Level())
	require.True(t, tee.Enabled(zapcore.DebugLevel))
	require.False(t, xLogTeeCore(newTestCore(w1, zapcore.WarnLevel)).Enabled(zapcore.InfoLevel))

	logger := zap.New(tee.With([]zap.Field{zap.String("run", "r1")}))
	logger.Info("info message")
	logger.Error("error message")
	require.NoError(t, logger.Sync())

	lines1, lines2 := w1.lines(t), w2.lines(t)
	require.Len(t, lines1, 1)
	require.Len(t, lines2, 2)
	require.Equal(t, "error message", lines1[0]["msg"])
	require.Equal(t, "r1", lines1[0]["run"])
	require.Equal(t, "info message", lines2[0]["msg"])
	require.Equal(t, "r1", lines2[1]["run"])
}

func TestXLogMultiCore_SyncErrors(t *testing.T) {
	err1, err2 := errors.New("sync 1"), errors.New("sync 2")
	tee := xLogTeeCore(
		newTestCore(&testFailedSyncer{err: err1}, zapcore.DebugLevel),
		newTestCore(&testMemOutWriter{}, zapcore.DebugLevel),
		newTestCore(&testFailedSyncer{err: err2}, zapcore.DebugLevel),
	)
	err := tee.Sync()
	require.ErrorIs(t, err, err1)
	require.ErrorIs(t, err, err2)
	require.Len(t, multierr.Errors(err), 2)
}
