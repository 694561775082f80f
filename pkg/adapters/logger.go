// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-bucketadmin.
//
// go-bucketadmin is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package adapters provides interfaces for pluggable logging and
// authentication.
package adapters

import (
	"context"
	"log/slog"
	"os"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// DebugLevel for detailed debugging information.
	DebugLevel LogLevel = iota
	// InfoLevel for general informational messages.
	InfoLevel
	// WarnLevel for warning messages.
	WarnLevel
	// ErrorLevel for error messages.
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a level name to a LogLevel. Unknown names map to
// InfoLevel.
func ParseLogLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field represents a structured logging field (key-value pair).
type Field struct {
	Key   string
	Value any
}

// Logger defines the interface for pluggable logging implementations.
// Applications can implement this interface to integrate with their native
// logging frameworks (e.g., zap, zerolog, logrus).
type Logger interface {
	// Debug logs a debug-level message with optional fields.
	Debug(ctx context.Context, msg string, fields ...Field)

	// Info logs an info-level message with optional fields.
	Info(ctx context.Context, msg string, fields ...Field)

	// Warn logs a warning-level message with optional fields.
	Warn(ctx context.Context, msg string, fields ...Field)

	// Error logs an error-level message with optional fields.
	Error(ctx context.Context, msg string, fields ...Field)

	// WithFields returns a new Logger with the given fields added to all
	// log entries.
	WithFields(fields ...Field) Logger

	// SetLevel sets the minimum log level that will be output.
	SetLevel(level LogLevel)

	// GetLevel returns the current log level.
	GetLevel() LogLevel
}

// DefaultLogger is a simple implementation using Go's standard slog package.
type DefaultLogger struct {
	logger *slog.Logger
	level  LogLevel
	fields []Field
}

// NewDefaultLogger creates a new default logger instance using slog with a
// text handler on stderr.
func NewDefaultLogger() Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return &DefaultLogger{
		logger: slog.New(slog.NewTextHandler(os.Stderr, opts)),
		level:  InfoLevel,
	}
}

// NewJSONLogger creates a logger that emits JSON records, suitable for log
// aggregation pipelines.
func NewJSONLogger() Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	return &DefaultLogger{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, opts)),
		level:  InfoLevel,
	}
}

func (d *DefaultLogger) log(ctx context.Context, level LogLevel, msg string, fields []Field) {
	if level < d.level {
		return
	}

	attrs := make([]any, 0, (len(d.fields)+len(fields))*2)
	for _, f := range d.fields {
		attrs = append(attrs, f.Key, f.Value)
	}
	for _, f := range fields {
		attrs = append(attrs, f.Key, f.Value)
	}

	switch level {
	case DebugLevel:
		d.logger.DebugContext(ctx, msg, attrs...)
	case InfoLevel:
		d.logger.InfoContext(ctx, msg, attrs...)
	case WarnLevel:
		d.logger.WarnContext(ctx, msg, attrs...)
	case ErrorLevel:
		d.logger.ErrorContext(ctx, msg, attrs...)
	}
}

// Debug logs a debug-level message.
func (d *DefaultLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	d.log(ctx, DebugLevel, msg, fields)
}

// Info logs an info-level message.
func (d *DefaultLogger) Info(ctx context.Context, msg string, fields ...Field) {
	d.log(ctx, InfoLevel, msg, fields)
}

// Warn logs a warning-level message.
func (d *DefaultLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	d.log(ctx, WarnLevel, msg, fields)
}

// Error logs an error-level message.
func (d *DefaultLogger) Error(ctx context.Context, msg string, fields ...Field) {
	d.log(ctx, ErrorLevel, msg, fields)
}

// WithFields returns a new Logger carrying the given fields.
func (d *DefaultLogger) WithFields(fields ...Field) Logger {
	combined := make([]Field, 0, len(d.fields)+len(fields))
	combined = append(combined, d.fields...)
	combined = append(combined, fields...)
	return &DefaultLogger{
		logger: d.logger,
		level:  d.level,
		fields: combined,
	}
}

// SetLevel sets the minimum log level.
func (d *DefaultLogger) SetLevel(level LogLevel) {
	d.level = level
}

// GetLevel returns the current log level.
func (d *DefaultLogger) GetLevel() LogLevel {
	return d.level
}

// NoOpLogger discards all log messages. Useful in tests.
type NoOpLogger struct {
	level LogLevel
}

// NewNoOpLogger creates a logger that discards everything.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (n *NoOpLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (n *NoOpLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (n *NoOpLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (n *NoOpLogger) WithFields(fields ...Field) Logger                      { return n }
func (n *NoOpLogger) SetLevel(level LogLevel)                                { n.level = level }
func (n *NoOpLogger) GetLevel() LogLevel                                     { return n.level }
