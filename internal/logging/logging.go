// Package logging is a thin severity-tagged wrapper over the standard
// library logger, used to report the snapshot engine's error taxonomy
// (ingest/view/rollover/invariant failures) without ever aborting the
// pipeline: every call here logs and returns, it never panics or exits.
package logging

import (
	"log"
	"os"
)

// Logger tags messages with a severity prefix.
type Logger struct {
	l *log.Logger
}

// New creates a Logger writing to stderr using the default stdlib
// logger.
func New() *Logger {
	return &Logger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

// Warn logs an InvariantViolation or other recoverable anomaly.
func (lg *Logger) Warn(format string, args ...interface{}) {
	lg.l.Printf("WARN "+format, args...)
}

// Error logs an IngestError, ViewError, or RolloverError: the event,
// view, or buffer insertion was dropped, but ingest continues.
func (lg *Logger) Error(format string, args ...interface{}) {
	lg.l.Printf("ERROR "+format, args...)
}

// Info logs routine lifecycle events (window rollover, publish).
func (lg *Logger) Info(format string, args ...interface{}) {
	lg.l.Printf("INFO "+format, args...)
}

// Debug logs verbose diagnostics.
func (lg *Logger) Debug(format string, args ...interface{}) {
	lg.l.Printf("DEBUG "+format, args...)
}
