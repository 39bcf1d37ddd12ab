// Package logging provides structured logging for the device SDK. It
// supports leveled output, text and JSON formats, and integration with the
// SDK's structured error contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	deverrors "github.com/edgewire/device-sdk-go/pkg/errors"
)

// Level represents the severity of a log message
type Level int

const (
	// DebugLevel is for detailed information useful for debugging
	DebugLevel Level = iota - 1
	// InfoLevel is for general informational messages
	InfoLevel
	// WarnLevel is for warning messages
	WarnLevel
	// ErrorLevel is for error messages
	ErrorLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
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

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an error field
func ErrorField(err error) Field {
	return Field{Key: "error", Value: err}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the interface for structured logging
type Logger interface {
	// Debug logs a debug message with fields
	Debug(msg string, fields ...Field)
	// Info logs an info message with fields
	Info(msg string, fields ...Field)
	// Warn logs a warning message with fields
	Warn(msg string, fields ...Field)
	// Error logs an error message with fields
	Error(msg string, fields ...Field)

	// WithFields returns a new logger with additional fields
	WithFields(fields ...Field) Logger
	// WithContext returns a new logger with context fields
	WithContext(ctx context.Context) Logger
	// WithError returns a new logger with error context
	WithError(err error) Logger

	// SetLevel sets the minimum log level
	SetLevel(level Level)
	// GetLevel returns the current log level
	GetLevel() Level
}

// Entry represents a log entry
type Entry struct {
	Level      Level
	Message    string
	Fields     map[string]interface{}
	Timestamp  time.Time
	TrackingID string
	Component  string
	Operation  string
}

// Formatter formats log entries
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// baseLogger is the base implementation of Logger
type baseLogger struct {
	mu          sync.RWMutex
	level       Level
	output      io.Writer
	formatter   Formatter
	fields      map[string]interface{}
	trackingKey string
}

// New creates a new structured logger
func New(output io.Writer, formatter Formatter) Logger {
	if output == nil {
		output = os.Stdout
	}
	if formatter == nil {
		formatter = NewTextFormatter()
	}

	return &baseLogger{
		level:       InfoLevel,
		output:      output,
		formatter:   formatter,
		fields:      make(map[string]interface{}),
		trackingKey: "tracking_id",
	}
}

// Debug logs a debug message
func (l *baseLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info message
func (l *baseLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning message
func (l *baseLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error message
func (l *baseLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// WithFields returns a new logger with additional fields
func (l *baseLogger) WithFields(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	newFields := make(map[string]interface{})
	for k, v := range l.fields {
		newFields[k] = v
	}

	for _, field := range fields {
		newFields[field.Key] = field.Value
	}

	return &baseLogger{
		level:       l.level,
		output:      l.output,
		formatter:   l.formatter,
		fields:      newFields,
		trackingKey: l.trackingKey,
	}
}

// WithContext returns a new logger with context fields
func (l *baseLogger) WithContext(ctx context.Context) Logger {
	fields := []Field{}

	if trackingID := TrackingIDFromContext(ctx); trackingID != "" {
		fields = append(fields, String(l.trackingKey, trackingID))
	}

	return l.WithFields(fields...)
}

// WithError returns a new logger with error context
func (l *baseLogger) WithError(err error) Logger {
	fields := []Field{ErrorField(err)}

	// If it's a device error, extract its context
	if devErr, ok := deverrors.AsDeviceError(err); ok {
		fields = append(fields,
			String("error_code", fmt.Sprintf("%d", devErr.Code())),
			String("error_category", string(devErr.Category())),
			String("error_severity", string(devErr.Severity())),
		)

		if ctx := devErr.Context(); ctx != nil {
			if ctx.TrackingID != "" {
				fields = append(fields, String(l.trackingKey, ctx.TrackingID))
			}
			if ctx.DeviceID != "" {
				fields = append(fields, String("device_id", ctx.DeviceID))
			}
			if ctx.Component != "" {
				fields = append(fields, String("component", ctx.Component))
			}
			if ctx.Operation != "" {
				fields = append(fields, String("operation", ctx.Operation))
			}
		}
	}

	return l.WithFields(fields...)
}

// SetLevel sets the minimum log level
func (l *baseLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level
func (l *baseLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// log writes a log entry
func (l *baseLogger) log(level Level, msg string, fields ...Field) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	l.mu.RUnlock()

	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}),
		Timestamp: time.Now(),
	}

	l.mu.RLock()
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	// Extract special fields
	if trackingID, ok := entry.Fields[l.trackingKey].(string); ok {
		entry.TrackingID = trackingID
	}
	if component, ok := entry.Fields["component"].(string); ok {
		entry.Component = component
	}
	if operation, ok := entry.Fields["operation"].(string); ok {
		entry.Operation = operation
	}

	data, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to format log entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.output.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log entry: %v\n", err)
	}
}

// nopLogger discards everything. Used as the default when no logger is
// configured, and in tests.
type nopLogger struct{}

// NewNop returns a logger that discards all output.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field)          {}
func (nopLogger) Info(string, ...Field)           {}
func (nopLogger) Warn(string, ...Field)           {}
func (nopLogger) Error(string, ...Field)          {}
func (n nopLogger) WithFields(...Field) Logger    { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
func (n nopLogger) WithError(error) Logger        { return n }
func (nopLogger) SetLevel(Level)                  {}
func (nopLogger) GetLevel() Level                 { return InfoLevel }

type contextKey string

const trackingIDKey contextKey = "tracking_id"

// ContextWithTrackingID returns a context carrying an operation tracking ID.
func ContextWithTrackingID(ctx context.Context, trackingID string) context.Context {
	return context.WithValue(ctx, trackingIDKey, trackingID)
}

// TrackingIDFromContext extracts the tracking ID from a context
func TrackingIDFromContext(ctx context.Context) string {
	if trackingID, ok := ctx.Value(trackingIDKey).(string); ok {
		return trackingID
	}
	return ""
}
