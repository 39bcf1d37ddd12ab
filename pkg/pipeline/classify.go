package pipeline

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"os"
	"syscall"

	deverrors "github.com/edgewire/device-sdk-go/pkg/errors"
)

// ErrorCategory is the outcome of classifying a transport fault. It drives
// the ResilientStage's decision to retry transparently, reset the inner
// stage, or propagate.
type ErrorCategory int

const (
	// ErrorCategoryNonTransient covers faults a retry will not fix. The
	// inner stage is reset and the fault propagates unchanged.
	ErrorCategoryNonTransient ErrorCategory = iota

	// ErrorCategoryTransientRecoverable covers transient faults after which
	// the transport channel itself remains usable. No reset; the fault
	// propagates as the canonical transient error.
	ErrorCategoryTransientRecoverable

	// ErrorCategoryTransientUnusable covers transient faults that break the
	// transport channel. The inner stage is reset, then the fault propagates
	// as the canonical transient error.
	ErrorCategoryTransientUnusable

	// ErrorCategorySecuritySensitive covers trust and authentication
	// failures. Never treated as transient regardless of nominal type.
	ErrorCategorySecuritySensitive

	// ErrorCategoryFatal covers unrecoverable process conditions. They
	// bypass resilience logic entirely: no reset, no wrapping.
	ErrorCategoryFatal
)

// String returns the category name
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNonTransient:
		return "non_transient"
	case ErrorCategoryTransientRecoverable:
		return "transient_recoverable"
	case ErrorCategoryTransientUnusable:
		return "transient_unusable"
	case ErrorCategorySecuritySensitive:
		return "security_sensitive"
	case ErrorCategoryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// stillUsableCodes are the device error codes after which the transport
// channel is intact and can be reused for a retry without reconnecting.
var stillUsableCodes = map[int]struct{}{
	deverrors.CodeTransient:          {},
	deverrors.CodeThrottled:          {},
	deverrors.CodeServerBusy:         {},
	deverrors.CodeOperationCancelled: {},
}

// transientCodes are the device error codes after which retrying the same
// logical operation may succeed.
var transientCodes = map[int]struct{}{
	deverrors.CodeTransient:          {},
	deverrors.CodeThrottled:          {},
	deverrors.CodeServerBusy:         {},
	deverrors.CodeOperationCancelled: {},
	deverrors.CodeCommunicationError: {},
	deverrors.CodeConnectionFailed:   {},
	deverrors.CodeConnectionLost:     {},
	deverrors.CodeTimeout:            {},
	deverrors.CodeSocketError:        {},
	deverrors.CodeClientClosed:       {},
}

// Classify maps a fault to its ErrorCategory by walking the full cause
// chain. Fatal faults win over everything, then security-sensitive faults,
// then transience.
func Classify(err error) ErrorCategory {
	if deverrors.IsFatal(err) {
		return ErrorCategoryFatal
	}
	if isSecuritySensitive(err) {
		return ErrorCategorySecuritySensitive
	}
	if isTransient(err) {
		if IsStillUsable(err) {
			return ErrorCategoryTransientRecoverable
		}
		return ErrorCategoryTransientUnusable
	}
	return ErrorCategoryNonTransient
}

// IsStillUsable reports whether the transport channel remains valid despite
// the fault, as opposed to requiring a full reconnect.
func IsStillUsable(err error) bool {
	return walkChain(err, func(e error) bool {
		if devErr, ok := deverrors.AsDeviceError(e); ok {
			_, usable := stillUsableCodes[devErr.Code()]
			return usable
		}
		// A cancelled operation leaves the channel intact.
		return e == context.Canceled
	})
}

// isTransient reports whether any fault in the chain belongs to the broader
// transient set. Security sensitivity is checked separately and with higher
// priority by Classify.
func isTransient(err error) bool {
	if isSecuritySensitive(err) {
		return false
	}
	return walkChain(err, func(e error) bool {
		if devErr, ok := deverrors.AsDeviceError(e); ok {
			_, transient := transientCodes[devErr.Code()]
			return transient
		}
		return isStructuralTransient(e)
	})
}

// isStructuralTransient recognizes transient faults by their Go type rather
// than by device error code: socket-level faults, timeouts, cancellation,
// and stream breakage raised below the transport's own error mapping.
func isStructuralTransient(err error) bool {
	switch err {
	case context.Canceled,
		context.DeadlineExceeded,
		os.ErrDeadlineExceeded,
		net.ErrClosed,
		io.EOF,
		io.ErrUnexpectedEOF,
		io.ErrClosedPipe,
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		syscall.ETIMEDOUT:
		return true
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	if _, ok := err.(*net.OpError); ok {
		return true
	}

	return false
}

// isSecuritySensitive reports whether any fault in the chain is a trust or
// authentication failure. These are checked structurally against the
// platform certificate-verification error types plus the SDK's own security
// category, and always override a nominally transient classification:
// retrying past a certificate-trust failure would be a security defect.
func isSecuritySensitive(err error) bool {
	return walkChain(err, func(e error) bool {
		switch e.(type) {
		case x509.UnknownAuthorityError,
			x509.CertificateInvalidError,
			x509.HostnameError,
			x509.SystemRootsError,
			*tls.CertificateVerificationError:
			return true
		}
		if devErr, ok := deverrors.AsDeviceError(e); ok {
			return devErr.Category() == deverrors.CategorySecurity
		}
		return false
	})
}

// walkChain visits err and every wrapped cause, depth-first, including
// multi-error wrappers, until visit reports a match.
func walkChain(err error, visit func(error) bool) bool {
	if err == nil {
		return false
	}
	if visit(err) {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return walkChain(x.Unwrap(), visit)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if walkChain(e, visit) {
				return true
			}
		}
	}
	return false
}
