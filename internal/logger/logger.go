// Package logger provides leveled logging for kbsync.
// Messages use printf-style formatting and are written through a shared
// hclog logger so every component logs with the same name, level and format.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

const name = "kbsync"

var (
	mu      sync.RWMutex
	level   = hclog.Info
	useJSON bool
	output  io.Writer = os.Stderr
	base    hclog.Logger
)

func init() {
	rebuild()
}

// rebuild recreates the shared logger. Callers must hold mu.
func rebuild() {
	base = hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     output,
		JSONFormat: useJSON,
	})
}

// Configure sets the level ("debug", "info", "warn", "error") and format.
// Unknown levels fall back to info.
func Configure(lvl string, jsonFormat bool) {
	mu.Lock()
	defer mu.Unlock()
	level = hclog.LevelFromString(lvl)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	useJSON = jsonFormat
	rebuild()
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v {
		level = hclog.Debug
	} else {
		level = hclog.Info
	}
	base.SetLevel(level)
}

// IsVerbose returns true if debug logging is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return level <= hclog.Debug
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Named returns a sub-logger for components that log structured key/value
// pairs directly.
func Named(component string) hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(component)
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Debug(fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Error(fmt.Sprintf(format, args...))
}
