// Package errors provides structured error handling for the device SDK.
// It defines error types carrying a stable numeric code, a category for
// classification, and a severity, while remaining compatible with standard
// errors.Is/As/Unwrap chain traversal.
package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category represents the type/category of an error for classification and handling
type Category string

const (
	CategoryUsage      Category = "usage"
	CategorySecurity   Category = "security"
	CategoryTransport  Category = "transport"
	CategoryThrottling Category = "throttling"
	CategoryService    Category = "service"
	CategoryTimeout    Category = "timeout"
	CategoryCancelled  Category = "cancelled"
	CategoryInternal   Category = "internal"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context provides additional context about where and when an error occurred
type Context struct {
	DeviceID   string                 `json:"device_id,omitempty"`
	Operation  string                 `json:"operation,omitempty"`
	Component  string                 `json:"component,omitempty"`
	TrackingID string                 `json:"tracking_id,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// DeviceError defines the interface for all device SDK errors
type DeviceError interface {
	error

	// Code returns the stable numeric error code
	Code() int

	// Message returns a human-readable error message
	Message() string

	// Details returns detailed technical description for debugging
	Details() string

	// Category returns the error category for classification
	Category() Category

	// Severity returns the error severity level
	Severity() Severity

	// Context returns the error context information
	Context() *Context

	// WithContext returns a new error with the provided context
	WithContext(ctx *Context) DeviceError

	// WithDetail returns a new error with additional detail
	WithDetail(detail string) DeviceError

	// Unwrap returns the underlying error for error chain traversal
	Unwrap() error

	// ToJSON returns the error as a JSON-serializable map
	ToJSON() map[string]interface{}
}

// baseError implements the DeviceError interface
type baseError struct {
	code     int
	message  string
	details  string
	category Category
	severity Severity
	context  *Context
	cause    error
}

// Error implements the error interface
func (e *baseError) Error() string {
	if e.details != "" {
		return fmt.Sprintf("%s: %s", e.message, e.details)
	}
	return e.message
}

// Code returns the stable numeric error code
func (e *baseError) Code() int {
	return e.code
}

// Message returns the human-readable error message
func (e *baseError) Message() string {
	return e.message
}

// Details returns detailed technical description
func (e *baseError) Details() string {
	return e.details
}

// Category returns the error category
func (e *baseError) Category() Category {
	return e.category
}

// Severity returns the error severity
func (e *baseError) Severity() Severity {
	return e.severity
}

// Context returns the error context
func (e *baseError) Context() *Context {
	return e.context
}

// WithContext returns a new error with the provided context
func (e *baseError) WithContext(ctx *Context) DeviceError {
	newErr := *e
	newErr.context = ctx
	return &newErr
}

// WithDetail returns a new error with additional detail
func (e *baseError) WithDetail(detail string) DeviceError {
	newErr := *e
	if newErr.details != "" {
		newErr.details = fmt.Sprintf("%s; %s", newErr.details, detail)
	} else {
		newErr.details = detail
	}
	return &newErr
}

// Unwrap returns the underlying error
func (e *baseError) Unwrap() error {
	return e.cause
}

// ToJSON returns the error as a JSON-serializable map
func (e *baseError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     e.code,
		"message":  e.message,
		"category": string(e.category),
		"severity": string(e.severity),
	}

	if e.details != "" {
		result["details"] = e.details
	}

	if e.context != nil {
		result["context"] = e.context
	}

	if e.cause != nil {
		result["cause"] = e.cause.Error()
	}

	return result
}

// MarshalJSON implements json.Marshaler for baseError
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

// New creates a new DeviceError with the specified parameters
func New(code int, message string, category Category, severity Severity) DeviceError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// Newf creates a new DeviceError with formatted message
func Newf(code int, category Category, severity Severity, format string, args ...interface{}) DeviceError {
	return &baseError{
		code:     code,
		message:  fmt.Sprintf(format, args...),
		category: category,
		severity: severity,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// Wrap wraps an existing error as a DeviceError
func Wrap(err error, code int, message string, category Category, severity Severity) DeviceError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// Wrapf wraps an existing error as a DeviceError with formatted message
func Wrapf(err error, code int, category Category, severity Severity, format string, args ...interface{}) DeviceError {
	return &baseError{
		code:     code,
		message:  fmt.Sprintf(format, args...),
		category: category,
		severity: severity,
		cause:    err,
		context: &Context{
			Timestamp: time.Now(),
		},
	}
}

// AsDeviceError extracts a DeviceError from err itself, without walking the
// cause chain. Use FirstDeviceError to search wrapped causes as well.
func AsDeviceError(err error) (DeviceError, bool) {
	if err == nil {
		return nil, false
	}

	if devErr, ok := err.(DeviceError); ok {
		return devErr, true
	}

	return nil, false
}

// IsDeviceError checks if an error is a DeviceError
func IsDeviceError(err error) bool {
	_, ok := AsDeviceError(err)
	return ok
}

// IsCategory checks if an error is of a specific category
func IsCategory(err error, category Category) bool {
	if devErr, ok := AsDeviceError(err); ok {
		return devErr.Category() == category
	}
	return false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code int) bool {
	if devErr, ok := AsDeviceError(err); ok {
		return devErr.Code() == code
	}
	return false
}
