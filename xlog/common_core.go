package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ xLogCore = (*commonCore)(nil)

// commonCore keeps the ingredients of its zap core so that a child
// logger can rebuild the core with another encoder config or level.
type commonCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	core       zapcore.Core
}

func (cc *commonCore) timeEncoder() zapcore.TimeEncoder                            { return cc.tsEnc }
func (cc *commonCore) levelEncoder() zapcore.LevelEncoder                          { return cc.lvlEnc }
func (cc *commonCore) writeSyncer() zapcore.WriteSyncer                            { return cc.ws }
func (cc *commonCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return cc.enc }
func (cc *commonCore) Enabled(lvl zapcore.Level) bool                              { return cc.lvlEnabler.Enabled(lvl) }
func (cc *commonCore) Sync() error                                                 { return cc.core.Sync() }

func (cc *commonCore) With(fields []zap.Field) zapcore.Core {
	clone := *cc
	clone.core = cc.core.With(fields)
	return &clone
}

func (cc *commonCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return cc.core.Check(ent, ce)
}

func (cc *commonCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return cc.core.Write(ent, fields)
}

func newCommonCore(
	lvlEnabler zapcore.LevelEnabler,
	enc func(cfg zapcore.EncoderConfig) zapcore.Encoder,
	ws zapcore.WriteSyncer,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
	cfg zapcore.EncoderConfig,
) *commonCore {
	cfg.EncodeLevel = lvlEnc
	cfg.EncodeTime = tsEnc
	return &commonCore{
		lvlEnabler: lvlEnabler,
		lvlEnc:     lvlEnc,
		tsEnc:      tsEnc,
		ws:         ws,
		enc:        enc,
		core:       zapcore.NewCore(enc(cfg), ws, lvlEnabler),
	}
}

// wrapComponentCore rebuilds the cores of a logger for a named
// component. A nil lvlEnabler keeps the parent's level.
func wrapComponentCore(core zapcore.Core, lvlEnabler zapcore.LevelEnabler) zapcore.Core {
	switch cc := core.(type) {
	case xLogMultiCore:
		cores := make(xLogMultiCore, 0, len(cc))
		for i := range cc {
			cores = append(cores, wrapCore(cc[i], lvlEnabler))
		}
		return cores
	case xLogCore:
		return wrapCore(cc, lvlEnabler)
	case nil:
		panic("[XLogger] core is nil")
	}
	panic("[XLogger] core is not xLogCore")
}

func wrapCore(core xLogCore, lvlEnabler zapcore.LevelEnabler) xLogCore {
	if lvlEnabler == nil {
		lvlEnabler = core
	}
	return newCommonCore(
		lvlEnabler,
		core.outEncoder(),
		core.writeSyncer(),
		core.levelEncoder(),
		core.timeEncoder(),
		componentCoreEncoderCfg,
	)
}

var componentCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     coreKeyIgnored,
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   coreKeyIgnored,
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}
