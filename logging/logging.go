// Package logging provides the component-tagged debug logger shared by all
// checkercam packages.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger("checkercam", false)
	verbose      bool
)

// NewLoggerConfig returns a console config with colour levels and no stacktraces.
func NewLoggerConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      zapcore.OmitKey,
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger builds a named logger. debug lowers the level to Debug.
func NewLogger(name string, debug bool) *zap.SugaredLogger {
	cfg := NewLoggerConfig()
	if debug {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar().Named(name)
}

// Init replaces the global logger with a fresh one.
func Init(name string, debug bool) {
	ReplaceGlobal(NewLogger(name, debug), debug)
}

// ReplaceGlobal swaps the global logger. Verbose messages are emitted only
// when debug is set.
func ReplaceGlobal(logger *zap.SugaredLogger, debug bool) {
	globalMu.Lock()
	globalLogger = logger
	verbose = debug
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() *zap.SugaredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// DebugMsg logs message under the given component name.
func DebugMsg(component, message string) {
	Global().Named(component).Info(message)
}

// DebugMsgVerbose logs only with -debug.
func DebugMsgVerbose(component, message string) {
	globalMu.RLock()
	on := verbose
	globalMu.RUnlock()
	if !on {
		return
	}
	Global().Named(component).Debug(message)
}

// ErrorMsg logs a failure under the given component name.
func ErrorMsg(component, message string) {
	Global().Named(component).Error(message)
}

// Sync flushes buffered entries.
func Sync() {
	_ = Global().Sync()
}
