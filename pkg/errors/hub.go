package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Fault constructors for the conditions the messaging service and its
// transports are known to raise. Transports translate protocol-level status
// values into these so the rest of the SDK can classify them uniformly.

// Throttled creates an error for service-side rate limiting.
func Throttled(operation string, retryAfter time.Duration) DeviceError {
	err := New(
		CodeThrottled,
		"Request was throttled by the service",
		CategoryThrottling,
		SeverityWarning,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
	if retryAfter > 0 {
		err = err.WithDetail(fmt.Sprintf("retry after %s", retryAfter))
	}
	return err
}

// ServerBusy creates an error for a temporarily overloaded service.
func ServerBusy(operation string) DeviceError {
	return New(
		CodeServerBusy,
		"Service is temporarily unable to process the request",
		CategoryService,
		SeverityWarning,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// CommunicationError wraps a network-level failure.
func CommunicationError(operation string, cause error) DeviceError {
	message := "Transient network failure"
	if cause != nil {
		message = fmt.Sprintf("Transient network failure: %s", cause.Error())
	}
	return Wrap(
		cause,
		CodeCommunicationError,
		message,
		CategoryTransport,
		SeverityError,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// ConnectionFailed wraps a failure to establish a connection.
func ConnectionFailed(endpoint string, cause error) DeviceError {
	message := "Failed to establish connection"
	if endpoint != "" {
		message = fmt.Sprintf("Failed to establish connection to %s", endpoint)
	}
	return Wrap(
		cause,
		CodeConnectionFailed,
		message,
		CategoryTransport,
		SeverityCritical,
	)
}

// ConnectionLost wraps a connection drop detected mid-operation.
func ConnectionLost(operation string, cause error) DeviceError {
	return Wrap(
		cause,
		CodeConnectionLost,
		"Connection was lost during the operation",
		CategoryTransport,
		SeverityError,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// Timeout wraps an operation deadline expiry.
func Timeout(operation string, timeout time.Duration, cause error) DeviceError {
	return Wrap(
		cause,
		CodeTimeout,
		fmt.Sprintf("Operation timed out after %s", timeout),
		CategoryTimeout,
		SeverityError,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// OperationCancelled wraps a caller-initiated cancellation.
func OperationCancelled(operation string, cause error) DeviceError {
	return Wrap(
		cause,
		CodeOperationCancelled,
		"Operation was cancelled",
		CategoryCancelled,
		SeverityInfo,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// Unauthorized creates an authentication failure. Never retried by the SDK.
func Unauthorized(detail string) DeviceError {
	err := New(
		CodeUnauthorized,
		"Authentication against the service failed",
		CategorySecurity,
		SeverityCritical,
	)
	if detail != "" {
		err = err.WithDetail(detail)
	}
	return err
}

// CertificateTrust wraps a TLS certificate validation failure. Never retried
// by the SDK: silently retrying past a trust failure would hide an active
// man-in-the-middle condition from the caller.
func CertificateTrust(cause error) DeviceError {
	message := "TLS certificate validation failed"
	if cause != nil {
		message = fmt.Sprintf("TLS certificate validation failed: %s", cause.Error())
	}
	return Wrap(
		cause,
		CodeCertificateTrust,
		message,
		CategorySecurity,
		SeverityCritical,
	)
}

// ClientClosed creates an error for operations attempted on a closed client.
func ClientClosed(operation string) DeviceError {
	return New(
		CodeClientClosed,
		"Client is closed",
		CategoryUsage,
		SeverityError,
	).WithContext(&Context{
		Operation: operation,
		Timestamp: time.Now(),
	})
}

// Transient wraps cause as the canonical transient error. Callers branch
// their retry logic on this single type via IsTransient; the original fault
// stays reachable through Unwrap for diagnosability.
func Transient(cause error) DeviceError {
	message := "Transient failure, operation may be retried"
	if cause != nil {
		message = fmt.Sprintf("Transient failure, operation may be retried: %s", cause.Error())
	}
	return Wrap(
		cause,
		CodeTransient,
		message,
		CategoryTransport,
		SeverityWarning,
	)
}

// IsTransient reports whether err is (or wraps) the canonical transient
// error. This is the single signal callers need to decide whether a retry
// of the failed operation is worthwhile.
func IsTransient(err error) bool {
	for e := err; e != nil; {
		if devErr, ok := AsDeviceError(e); ok && devErr.Code() == CodeTransient {
			return true
		}
		e = stderrors.Unwrap(e)
	}
	return false
}

// fatalError marks an unrecoverable process condition. The resilience layer
// propagates these untouched: no classification, no reset, no wrapping.
type fatalError struct {
	message string
	cause   error
}

func (e *fatalError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("fatal: %s: %s", e.message, e.cause.Error())
	}
	return fmt.Sprintf("fatal: %s", e.message)
}

func (e *fatalError) Unwrap() error {
	return e.cause
}

// Fatal creates an unrecoverable error.
func Fatal(message string) error {
	return &fatalError{message: message}
}

// WrapFatal marks an existing error as unrecoverable.
func WrapFatal(message string, cause error) error {
	return &fatalError{message: message, cause: cause}
}

// IsFatal reports whether any error in the chain is fatal.
func IsFatal(err error) bool {
	var fe *fatalError
	if stderrors.As(err, &fe) {
		return true
	}
	for e := err; e != nil; {
		if devErr, ok := AsDeviceError(e); ok && devErr.Code() == CodeFatal {
			return true
		}
		e = stderrors.Unwrap(e)
	}
	return false
}

// FirstDeviceError returns the outermost DeviceError in the chain.
func FirstDeviceError(err error) (DeviceError, bool) {
	for e := err; e != nil; {
		if devErr, ok := AsDeviceError(e); ok {
			return devErr, true
		}
		e = stderrors.Unwrap(e)
	}
	return nil, false
}
