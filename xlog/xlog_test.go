package xlog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/lib/infra"
)

type testMemOutWriter struct {
	lock sync.Mutex
	data []byte
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *testMemOutWriter) Sync() error {
	return nil
}

func (w *testMemOutWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return string(w.data)
}

func (w *testMemOutWriter) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.data = make([]byte, 0, 4096)
}

// lines decodes every JSON line written so far.
func (w *testMemOutWriter) lines(t *testing.T) []map[string]any {
	t.Helper()
	res := make([]map[string]any, 0, 8)
	for _, line := range strings.Split(strings.TrimSpace(w.String()), "\n") {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		res = append(res, m)
	}
	return res
}

func newTestXLogger(w *testMemOutWriter, opts ...XLoggerOption) XLogger {
	setOutWriterByType(testMemAsOut, w)
	return NewXLogger(append([]XLoggerOption{
		WithXLoggerLevel(LogLevelDebug),
		withXLoggerWriter(testMemAsOut),
	}, opts...)...)
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
	require.Equal(t, zapcore.WarnLevel, getLogLevelOrDefault(" warn "))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("trace"))
}

type testBanner struct{}

func (b testBanner) JSON() string {
	return "{\"app\":\"xavl\"}"
}

func (b testBanner) PlainText() string {
	return `
 __  __   ___   _   _ _
 \ \/ /  / _ \ | | | | |
  >  <  / ___ \| |_| | |___
 /_/\_\/_/   \_\\___/|_____|
`
}

func TestXLogger_Banner(t *testing.T) {
	w := &testMemOutWriter{}
	printBanner = sync.Once{}
	logger := newTestXLogger(w)
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"xavl\\\"}\"}\n", w.String())

	// Printed once per process.
	logger.Banner(testBanner{})
	require.Equal(t, "{\"banner\":\"{\\\"app\\\":\\\"xavl\\\"}\"}\n", w.String())

	w.Reset()
	printBanner = sync.Once{}
	logger = newTestXLogger(w, WithXLoggerEncoder(PlainText))
	logger.Banner(testBanner{})
	require.Equal(t, testBanner{}.PlainText()+"\n", w.String())
}

func TestXLogger_Levels(t *testing.T) {
	w := &testMemOutWriter{}
	logger := newTestXLogger(w)
	require.Equal(t, "debug", logger.Level())

	logger.Debug("debug message", zap.Int("n", 1))
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Logf(zapcore.InfoLevel, "formatted %d-%s", 7, "x")

	lines := w.lines(t)
	require.Len(t, lines, 4)
	require.Equal(t, "DEBUG", lines[0]["lvl"])
	require.Equal(t, "debug message", lines[0]["msg"])
	require.Equal(t, float64(1), lines[0]["n"])
	require.Contains(t, lines[0]["callAt"], "xlog_test.go")
	require.Equal(t, "INFO", lines[1]["lvl"])
	require.Equal(t, "WARN", lines[2]["lvl"])
	require.Equal(t, "formatted 7-x", lines[3]["msg"])

	w.Reset()
	logger.IncreaseLogLevel(zapcore.WarnLevel)
	require.Equal(t, "warn", logger.Level())
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	lines = w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "kept", lines[0]["msg"])
	require.NoError(t, logger.Sync())
}

func TestXLogger_Errors(t *testing.T) {
	w := &testMemOutWriter{}
	logger := newTestXLogger(w)

	plain := errors.New("plain error")
	stacked := infra.WrapErrorStackWithMessage(plain, "wrapped")

	logger.Error(plain, "error message", zap.String("k", "v"))
	logger.Error(nil, "nil error")
	logger.ErrorStack(stacked, "stack message")
	logger.ErrorStack(plain, "no stack message")
	logger.ErrorStackf(stacked, "stack %s", "formatted")

	lines := w.lines(t)
	require.Len(t, lines, 5)
	require.Equal(t, "plain error", lines[0]["error"])
	require.Equal(t, "v", lines[0]["k"])
	require.Equal(t, "ERROR", lines[0]["lvl"])
	require.NotContains(t, lines[1], "error")

	require.Equal(t, "wrapped: plain error", lines[2]["error"])
	frames, ok := lines[2]["errorStack"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, frames)
	require.Contains(t, frames[0], "xlog_test.go")

	require.Equal(t, "plain error", lines[3]["error"])
	require.NotContains(t, lines[3], "errorStack")

	require.Equal(t, "stack formatted", lines[4]["msg"])
	require.Contains(t, lines[4], "errorStack")
}

func TestXLogger_ContextFields(t *testing.T) {
	w := &testMemOutWriter{}
	logger := newTestXLogger(w,
		WithXLoggerContextFieldExtract("traceId", "TraceID"),
		WithXLoggerContextFieldExtract("runId"),
		WithXLoggerContextFieldExtract("secret", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract(""),
	)

	ctx := context.WithValue(context.TODO(), "traceId", "1234567890")
	ctx = context.WithValue(ctx, "secret", "s3cr3t")

	logger.DebugContext(ctx, "debug message")
	logger.InfoContext(ctx, "info message")
	logger.WarnContext(ctx, "warn message")
	logger.ErrorContext(ctx, errors.New("oops"), "error message")
	logger.ErrorStackContext(ctx, infra.NewErrorStack("boom"), "stack message")

	lines := w.lines(t)
	require.Len(t, lines, 5)
	for _, line := range lines {
		require.Equal(t, "1234567890", line["TraceID"])
		require.Equal(t, "nil", line["runId"])
		require.NotContains(t, line, "secret")
		require.NotContains(t, line, "traceId")
	}
	require.Equal(t, "oops", lines[3]["error"])
	require.Equal(t, "boom", lines[4]["error"])
	require.Contains(t, lines[4], "errorStack")
}

func TestXLogger_Options(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(withXLoggerWriter(_writerMax))
	})

	w := &testMemOutWriter{}
	logger := newTestXLogger(w,
		nil,
		WithXLoggerEncoder(PlainText),
		WithXLoggerLevelEncoder(nil),
		WithXLoggerTimeEncoder(nil),
		WithXLoggerStdOutWriter(),
		WithXLoggerStdOutWriter(),
	)
	logger.Info("twice")
	// Two console cores write to the same writer.
	require.Equal(t, 2, strings.Count(w.String(), "twice"))
	require.Contains(t, w.String(), "INFO")
}

func TestXLogger_DefaultLevelFromEnv(t *testing.T) {
	t.Setenv("XLOG_LVL", "error")
	w := &testMemOutWriter{}
	setOutWriterByType(testMemAsOut, w)
	logger := NewXLogger(withXLoggerWriter(testMemAsOut))
	require.Equal(t, "error", logger.Level())
	logger.Warn("dropped")
	require.Empty(t, w.String())
}
