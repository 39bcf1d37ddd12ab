package pipeline

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	deverrors "github.com/edgewire/device-sdk-go/pkg/errors"
)

// timeoutNetError implements net.Error with Timeout() == true.
type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		// Fatal wins over everything.
		{"fatal", deverrors.Fatal("stack exhausted"), ErrorCategoryFatal},
		{"wrapped fatal", fmt.Errorf("op failed: %w", deverrors.WrapFatal("oom", syscall.ECONNRESET)), ErrorCategoryFatal},

		// Security-sensitive faults, including nominally transient wrappers.
		{"unknown authority", x509.UnknownAuthorityError{}, ErrorCategorySecuritySensitive},
		{"certificate invalid", x509.CertificateInvalidError{Reason: x509.Expired}, ErrorCategorySecuritySensitive},
		{"system roots", x509.SystemRootsError{}, ErrorCategorySecuritySensitive},
		{"tls verification", &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}, ErrorCategorySecuritySensitive},
		{"wrapped trust failure", fmt.Errorf("dial: %w", x509.UnknownAuthorityError{}), ErrorCategorySecuritySensitive},
		{"transient wrapper around trust failure", deverrors.CommunicationError("Open", x509.UnknownAuthorityError{}), ErrorCategorySecuritySensitive},
		{"unauthorized", deverrors.Unauthorized("bad token"), ErrorCategorySecuritySensitive},
		{"certificate trust code", deverrors.CertificateTrust(nil), ErrorCategorySecuritySensitive},

		// Transient, channel still usable.
		{"throttled", deverrors.Throttled("SendEvent", time.Second), ErrorCategoryTransientRecoverable},
		{"server busy", deverrors.ServerBusy("SendEvent"), ErrorCategoryTransientRecoverable},
		{"canonical transient", deverrors.Transient(errors.New("blip")), ErrorCategoryTransientRecoverable},
		{"operation cancelled", deverrors.OperationCancelled("Receive", context.Canceled), ErrorCategoryTransientRecoverable},
		{"bare context cancellation", context.Canceled, ErrorCategoryTransientRecoverable},

		// Transient, channel broken.
		{"connection reset", syscall.ECONNRESET, ErrorCategoryTransientUnusable},
		{"broken pipe", syscall.EPIPE, ErrorCategoryTransientUnusable},
		{"wrapped socket fault", fmt.Errorf("write: %w", syscall.ECONNABORTED), ErrorCategoryTransientUnusable},
		{"eof", io.EOF, ErrorCategoryTransientUnusable},
		{"closed network connection", net.ErrClosed, ErrorCategoryTransientUnusable},
		{"net op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, ErrorCategoryTransientUnusable},
		{"net timeout", timeoutNetError{}, ErrorCategoryTransientUnusable},
		{"deadline exceeded", context.DeadlineExceeded, ErrorCategoryTransientUnusable},
		{"connection lost", deverrors.ConnectionLost("Receive", io.EOF), ErrorCategoryTransientUnusable},
		{"timeout", deverrors.Timeout("GetTwin", time.Second, nil), ErrorCategoryTransientUnusable},

		// Everything else.
		{"plain error", errors.New("schema violation"), ErrorCategoryNonTransient},
		{"quota exceeded", deverrors.New(deverrors.CodeQuotaExceeded, "quota", deverrors.CategoryService, deverrors.SeverityError), ErrorCategoryNonTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsStillUsable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"throttled", deverrors.Throttled("SendEvent", 0), true},
		{"server busy", deverrors.ServerBusy("SendEvent"), true},
		{"canonical transient", deverrors.Transient(nil), true},
		{"cancelled", context.Canceled, true},
		{"connection reset", syscall.ECONNRESET, false},
		{"connection lost", deverrors.ConnectionLost("Receive", nil), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStillUsable(tt.err); got != tt.want {
				t.Errorf("IsStillUsable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorCategoryString(t *testing.T) {
	categories := map[ErrorCategory]string{
		ErrorCategoryNonTransient:         "non_transient",
		ErrorCategoryTransientRecoverable: "transient_recoverable",
		ErrorCategoryTransientUnusable:    "transient_unusable",
		ErrorCategorySecuritySensitive:    "security_sensitive",
		ErrorCategoryFatal:                "fatal",
	}
	for cat, want := range categories {
		if got := cat.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", cat, got, want)
		}
	}
}
