// Package logger wraps charmbracelet/log behind a small facade so the rest
// of the module never imports the logging library directly.
package logger

import (
	"io"
	"os"
	"sort"
	"strings"

	cblog "github.com/charmbracelet/log"
)

// Options configures a Logger at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
	Component     string
}

// Logger is a structured, leveled logger used throughout the pipeline.
type Logger struct {
	base *cblog.Logger
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := cblog.InfoLevel
	if opts.Level != "" {
		parsed, err := cblog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	copts := cblog.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if !opts.HumanReadable {
		copts.Formatter = cblog.JSONFormatter
	}

	base := cblog.NewWithOptions(writer, copts)
	if opts.Component != "" {
		base = base.With("component", opts.Component)
	}

	return &Logger{base: base}, nil
}

// Noop returns a Logger that discards everything it is given.
func Noop() *Logger {
	l := cblog.New(io.Discard)
	l.SetLevel(cblog.FatalLevel + 1)
	return &Logger{base: l}
}

// WithFields returns a derived logger that always writes the supplied
// fields, sorted by key for deterministic output.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil || l.base == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return &Logger{base: l.base.With(args...)}
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string, kv ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Info(msg, kv...)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Debug(msg, kv...)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	l.base.Warn(msg, kv...)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string, kv ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	if err != nil {
		kv = append(kv, "error", err)
	}
	l.base.Error(msg, kv...)
}
