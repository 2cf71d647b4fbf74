package xlog

import (
	"time"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxXLogger prints the fx lifecycle of a one-shot app, the wiring
// and the start and stop hooks. Successful constructor runs, decorate
// and replace events are dropped.
type FxXLogger struct {
	logger XLogger
}

func withModule(module string, fields ...zap.Field) []zap.Field {
	if len(module) == 0 {
		return fields
	}
	return append(fields, zap.String("module", module))
}

func hookFields(function, caller string, elapsed ...time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("hook", function),
		zap.String("caller", caller),
	}
	if len(elapsed) > 0 {
		fields = append(fields, zap.Duration("elapsed", elapsed[0]))
	}
	return fields
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx logger init failed")
			return
		}
		l.logger.Debug("fx logger ready", zap.String("constructor", e.ConstructorName))
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx supply failed", withModule(e.ModuleName, zap.String("type", e.TypeName))...)
			return
		}
		l.logger.Debug("fx supply", withModule(e.ModuleName, zap.String("type", e.TypeName))...)
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx provide failed",
				withModule(e.ModuleName, zap.String("constructor", e.ConstructorName))...)
			return
		}
		l.logger.Debug("fx provide", withModule(e.ModuleName,
			zap.String("constructor", e.ConstructorName),
			zap.Strings("types", e.OutputTypeNames),
			zap.Bool("private", e.Private),
		)...)
	case *fxevent.Invoking:
		l.logger.Debug("fx invoke", withModule(e.ModuleName, zap.String("function", e.FunctionName))...)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx invoke failed", withModule(e.ModuleName,
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)...)
		}
	case *fxevent.Run:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx constructor failed", withModule(e.ModuleName,
				zap.String("constructor", e.Name),
				zap.String("kind", e.Kind),
			)...)
		}
	case *fxevent.OnStartExecuting:
		l.logger.Debug("fx hook starting", hookFields(e.FunctionName, e.CallerName)...)
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx hook start failed", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
			return
		}
		l.logger.Debug("fx hook started", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("fx hook stopping", hookFields(e.FunctionName, e.CallerName)...)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx hook stop failed", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
			return
		}
		l.logger.Debug("fx hook stopped", hookFields(e.FunctionName, e.CallerName, e.Runtime)...)
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx start failed")
			return
		}
		l.logger.Info("fx started")
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx stop failed")
			return
		}
		l.logger.Info("fx stopped")
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "fx start rolling back")
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "fx rollback failed")
		}
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: componentLogger(logger, "Fx")}
}
