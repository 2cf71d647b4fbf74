package xlog

import (
	"go.uber.org/zap/zapcore"
)

// AntsXLogger adapts the XLogger to the ants pool logger,
// ants only reports the task panics by it.
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
		logger: componentLogger(logger, "Ants"),
	}
}

func componentLogger(logger XLogger, name string) XLogger {
	if logger == nil {
		return nil
	}
	if xl, ok := logger.(*xLogger); ok && xl != nil {
		return xl.component(name)
	}
	return logger.Named(name)
}
