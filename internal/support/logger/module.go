package logger

import "go.uber.org/fx"

// Module is an Fx module that installs the fxevent adapter.
var Module = fx.Options(
	fx.WithLogger(NewFxLoggerAdapter),
)
