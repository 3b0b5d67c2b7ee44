// Package logger provides the leveled logging utility used across the emissions
// data core. It wraps the standard `log` package and filters messages by level.
package logger

import (
	"fmt"
	"log"
	"strings"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LevelDebug is used for detailed diagnostic output such as issued SQL text.
	LevelDebug LogLevel = iota
	// LevelInfo is used for general progress messages.
	LevelInfo
	// LevelWarn is used for recoverable anomalies, e.g. a missing .env file.
	LevelWarn
	// LevelError is used for operation failures that are surfaced to the caller.
	LevelError
	// LevelFatal is used for failures that terminate the process.
	LevelFatal
)

// logLevel is the currently active global level. Messages below it are dropped.
var logLevel = LevelInfo

// SetLogLevel sets the global log level. Valid values are "DEBUG", "INFO",
// "WARN", "ERROR" and "FATAL" (case-insensitive). An unknown value falls back
// to INFO with a warning on stdout.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = LevelDebug
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	default:
		fmt.Printf("Unknown log level '%s' specified. Defaulting to INFO level.\n", level)
		logLevel = LevelInfo
	}
}

// Debugf formats and outputs a DEBUG level message.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level message.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level message.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level message.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf formats and outputs a FATAL level message, then exits the process.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}
