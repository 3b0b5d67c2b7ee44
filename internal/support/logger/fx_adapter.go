package logger

import (
	"strings"

	"go.uber.org/fx/fxevent"
)

// FxLoggerAdapter routes Fx container events through the package logger so
// that dependency-injection noise honours the configured log level.
type FxLoggerAdapter struct{}

// NewFxLoggerAdapter creates a new FxLoggerAdapter.
func NewFxLoggerAdapter() fxevent.Logger {
	return &FxLoggerAdapter{}
}

// LogEvent logs events emitted by the Fx container.
func (l *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Errorf("OnStart hook failed: %s, error: %v", trimFuncName(e.FunctionName), e.Err)
		} else {
			Debugf("OnStart hook executed: %s", trimFuncName(e.FunctionName))
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Errorf("OnStop hook failed: %s, error: %v", trimFuncName(e.FunctionName), e.Err)
		} else {
			Debugf("OnStop hook executed: %s", trimFuncName(e.FunctionName))
		}
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			Debugf("Provided: %s", rtype)
		}
		if e.Err != nil {
			Errorf("Provide error: %v", e.Err)
		}
	case *fxevent.Invoking:
		Debugf("Invoking: %s", trimFuncName(e.FunctionName))
	case *fxevent.Invoked:
		if e.Err != nil {
			Errorf("Invoke failed: %s, error: %v", e.FunctionName, e.Err)
		}
	case *fxevent.Stopping:
		Debugf("Stopping signal received: %s", e.Signal)
	case *fxevent.RollingBack:
		Errorf("Start failed, rolling back, error: %v", e.StartErr)
	case *fxevent.Started:
		if e.Err != nil {
			Errorf("Start failed, error: %v", e.Err)
		} else {
			Infof("Application started.")
		}
	}
}

// trimFuncName removes anonymous function suffixes like ".func1" from Fx's
// reported function names.
func trimFuncName(funcName string) string {
	if idx := strings.LastIndex(funcName, ".func"); idx != -1 {
		return funcName[:idx]
	}
	return funcName
}
