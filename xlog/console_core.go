package xlog

import (
	"go.uber.org/zap/zapcore"
)

// xLogCore keeps the parts a zapcore.Core was built from, so that
// component loggers (ants, fx) are able to rebuild it with another
// encoder config but the same writer and level enabler.
type xLogCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	zapcore.Core
}

func (xc *xLogCore) wrap(cfg zapcore.EncoderConfig) *xLogCore {
	cfg.EncodeLevel = xc.lvlEnc
	cfg.EncodeTime = xc.tsEnc
	return &xLogCore{
		lvlEnabler: xc.lvlEnabler,
		lvlEnc:     xc.lvlEnc,
		tsEnc:      xc.tsEnc,
		ws:         xc.ws,
		enc:        xc.enc,
		Core:       zapcore.NewCore(xc.enc(cfg), xc.ws, xc.lvlEnabler),
	}
}

var consoleCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     "callAt",
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   "fn",
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}

// Component loggers drop the caller and function, they always
// point into the third-party library.
var componentCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     coreKeyIgnored,
	FunctionKey:   coreKeyIgnored,
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}

func newConsoleCore(
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	ws zapcore.WriteSyncer,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) *xLogCore {
	if ws == nil {
		ws = stdOutWriter()
	}
	xc := &xLogCore{
		lvlEnabler: lvlEnabler,
		lvlEnc:     lvlEnc,
		tsEnc:      tsEnc,
		ws:         ws,
		enc:        getEncoderByType(encoder),
	}
	return xc.wrap(consoleCoreEncoderCfg)
}
