// Package log provides scoped, leveled loggers for genweb.
//
// The TUI owns the terminal, so log output goes to a file chosen with
// --log-file (or log.file in the config). Until Init is called every logger
// is disabled.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pion/logging"
)

// Scopes used across the module.
const (
	ScopeStream   = "stream"
	ScopeDocument = "document"
	ScopeEditor   = "editor"
	ScopePreview  = "preview"
	ScopeHistory  = "history"
	ScopeLLM      = "llm"
	ScopeTUI      = "tui"
)

var (
	mu      sync.RWMutex
	factory logging.LoggerFactory = disabledFactory{}
)

// Init routes all loggers to the file at path at the given level ("error",
// "warn", "info", "debug", "trace", "disabled"). An empty path disables
// logging. The returned func closes the file.
func Init(path, level string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	SetOutput(f, lvl)
	return func() {
		SetOutput(io.Discard, logging.LogLevelDisabled)
		_ = f.Close()
	}, nil
}

// SetOutput swaps the writer and default level for loggers created after
// the call.
func SetOutput(w io.Writer, level logging.LogLevel) {
	f := logging.NewDefaultLoggerFactory()
	f.Writer = w
	f.DefaultLogLevel = level

	mu.Lock()
	factory = f
	mu.Unlock()
}

// For returns a logger for scope.
func For(scope string) logging.LeveledLogger {
	mu.RLock()
	defer mu.RUnlock()
	return factory.NewLogger(scope)
}

// Discard returns a logger that drops everything, for components built
// without an explicit logger.
func Discard() logging.LeveledLogger {
	return logging.NewDefaultLeveledLoggerForScope("", logging.LogLevelDisabled, io.Discard)
}

// ParseLevel maps a config string to a pion log level.
func ParseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	case "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	case "disabled", "off", "none":
		return logging.LogLevelDisabled, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
}

type disabledFactory struct{}

func (disabledFactory) NewLogger(scope string) logging.LeveledLogger {
	return logging.NewDefaultLeveledLoggerForScope(scope, logging.LogLevelDisabled, io.Discard)
}
