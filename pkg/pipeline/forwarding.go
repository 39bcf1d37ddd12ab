package pipeline

import (
	"context"
	"time"

	"github.com/edgewire/device-sdk-go/pkg/messages"
)

// ForwardingStage forwards every operation unmodified to an inner stage. It
// is the composition point middleware stages embed so they only override the
// operations they care about.
type ForwardingStage struct {
	inner Stage
}

// NewForwardingStage creates a stage that delegates everything to inner.
func NewForwardingStage(inner Stage) *ForwardingStage {
	return &ForwardingStage{inner: inner}
}

// Inner returns the wrapped stage.
func (f *ForwardingStage) Inner() Stage {
	return f.inner
}

// Open delegates to the inner stage
func (f *ForwardingStage) Open(ctx context.Context, explicit bool) error {
	return f.inner.Open(ctx, explicit)
}

// Close delegates to the inner stage
func (f *ForwardingStage) Close(ctx context.Context) error {
	return f.inner.Close(ctx)
}

// SendEvent delegates to the inner stage
func (f *ForwardingStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	return f.inner.SendEvent(ctx, msg)
}

// SendEvents delegates to the inner stage
func (f *ForwardingStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	return f.inner.SendEvents(ctx, msgs)
}

// Receive delegates to the inner stage
func (f *ForwardingStage) Receive(ctx context.Context) (*messages.Message, error) {
	return f.inner.Receive(ctx)
}

// ReceiveTimeout delegates to the inner stage
func (f *ForwardingStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	return f.inner.ReceiveTimeout(ctx, timeout)
}

// EnableMethods delegates to the inner stage
func (f *ForwardingStage) EnableMethods(ctx context.Context) error {
	return f.inner.EnableMethods(ctx)
}

// DisableMethods delegates to the inner stage
func (f *ForwardingStage) DisableMethods(ctx context.Context) error {
	return f.inner.DisableMethods(ctx)
}

// EnableEventReceive delegates to the inner stage
func (f *ForwardingStage) EnableEventReceive(ctx context.Context) error {
	return f.inner.EnableEventReceive(ctx)
}

// DisableEventReceive delegates to the inner stage
func (f *ForwardingStage) DisableEventReceive(ctx context.Context) error {
	return f.inner.DisableEventReceive(ctx)
}

// EnableTwinPatch delegates to the inner stage
func (f *ForwardingStage) EnableTwinPatch(ctx context.Context) error {
	return f.inner.EnableTwinPatch(ctx)
}

// GetTwin delegates to the inner stage
func (f *ForwardingStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	return f.inner.GetTwin(ctx)
}

// SendTwinPatch delegates to the inner stage
func (f *ForwardingStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return f.inner.SendTwinPatch(ctx, properties)
}

// SendMethodResponse delegates to the inner stage
func (f *ForwardingStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return f.inner.SendMethodResponse(ctx, response)
}

// Complete delegates to the inner stage
func (f *ForwardingStage) Complete(ctx context.Context, lockToken string) error {
	return f.inner.Complete(ctx, lockToken)
}

// Abandon delegates to the inner stage
func (f *ForwardingStage) Abandon(ctx context.Context, lockToken string) error {
	return f.inner.Abandon(ctx, lockToken)
}

// Reject delegates to the inner stage
func (f *ForwardingStage) Reject(ctx context.Context, lockToken string) error {
	return f.inner.Reject(ctx, lockToken)
}

// RecoverConnections delegates to the inner stage
func (f *ForwardingStage) RecoverConnections(ctx context.Context, connType ConnectionType) error {
	return f.inner.RecoverConnections(ctx, connType)
}
