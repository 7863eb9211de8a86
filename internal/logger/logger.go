// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps a zap SugaredLogger so call sites keep printf-style formatting while
// output is structured (json) or human readable (text).
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu            sync.RWMutex
	defaultLogger *zap.SugaredLogger
)

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes the default logger with the specified level and format ("json" or "text").
func Init(level string, format string) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(format) == "text" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), ParseLevel(level))
	set(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar())
}

// SetLogger replaces the default logger; tests use it with zaptest/observer cores.
func SetLogger(l *zap.Logger) {
	if l == nil {
		set(nil)
		return
	}
	set(l.WithOptions(zap.AddCallerSkip(1)).Sugar())
}

func set(l *zap.SugaredLogger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Debugf(format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Infof(format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Warnf(format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Errorf(format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if l := get(); l != nil {
		l.Errorf("[FATAL] "+format, args...)
		_ = l.Sync()
	} else {
		fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
	}
	os.Exit(1)
}

// Sync flushes buffered log entries.
func Sync() error {
	if l := get(); l != nil {
		return l.Sync()
	}
	return nil
}
