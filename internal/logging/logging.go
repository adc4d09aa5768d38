// Package logging wires the structured logger used across visionqa.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/baditaflorin/l"
)

// Logger is the subset of l.Logger the rest of the tree depends on.
// Arguments after the message are alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Options controls the process logger
type Options struct {
	Output io.Writer
	JSON   bool
	Async  bool
}

// New creates a logger backed by l's standard factory.
// Callers own the returned logger and must Close it.
func New(opts Options) (l.Logger, error) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return l.NewStandardFactory().CreateLogger(l.Config{
		Output:      output,
		JsonFormat:  opts.JSON,
		AsyncWrite:  opts.Async,
		BufferSize:  64 * 1024,
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   false,
		Metrics:     false,
	})
}

type nop struct{}

func (nop) Debug(string, ...interface{}) {}
func (nop) Info(string, ...interface{})  {}
func (nop) Warn(string, ...interface{})  {}
func (nop) Error(string, ...interface{}) {}

// Nop returns a logger that discards everything
func Nop() Logger {
	return nop{}
}

var (
	mu  sync.RWMutex
	std Logger = nop{}
)

// Default returns the process-wide logger set by the CLI, or a no-op logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// SetDefault replaces the process-wide logger. A nil logger resets to Nop.
func SetDefault(logger Logger) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = nop{}
	}
	std = logger
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger Logger) Logger {
	if logger == nil {
		return nop{}
	}
	return logger
}

type quiet struct{ Logger }

func (quiet) Debug(string, ...interface{}) {}

// WithoutDebug drops debug-level lines from logger
func WithoutDebug(logger Logger) Logger {
	return quiet{OrNop(logger)}
}
