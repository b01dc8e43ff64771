// internal/logging/logging.go
// Package logging owns the process-wide logger. It writes human-readable lines
// to stdout and JSON lines to an optional log file, and installs itself as the
// global zap logger so packages may also use zap.L().Named(...) directly.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = zap.NewNop()
	restore = func() {}
	level   = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

type options struct {
	console bool
}

// Option configures Init.
type Option func(*options)

// WithoutConsole keeps log lines off stdout, for output modes that own the terminal.
func WithoutConsole() Option {
	return func(o *options) { o.console = false }
}

// Init (re)builds the global logger. An empty logPath disables the file sink.
func Init(logPath string, opts ...Option) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	o := options{console: true}
	for _, opt := range opts {
		opt(&o)
	}

	var cores []zapcore.Core
	if o.console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level))
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(logFile), level))
	}

	logger = zap.New(zapcore.NewTee(cores...))
	restore = zap.ReplaceGlobals(logger)
	return nil
}

// Close flushes the logger and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	_ = logger.Sync()
	restore()
	restore = func() {}
	logger = zap.NewNop()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetDebug toggles debug-level output.
func SetDebug(enabled bool) {
	if enabled {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(zapcore.InfoLevel)
}

// Named returns a child of the current global logger.
func Named(name string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger.Named(name)
}

func LogEvent(format string, args ...any) {
	current().Info(fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	current().Debug(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	current().Error(fmt.Sprintf(format, args...))
}

func current() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
