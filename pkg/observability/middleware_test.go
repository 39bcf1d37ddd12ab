package observability

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgewire/device-sdk-go/pkg/messages"
	"github.com/edgewire/device-sdk-go/pkg/pipeline"
)

// stubStage is a minimal pipeline.Stage whose SendEvent outcome tests
// control.
type stubStage struct {
	sendErr   error
	sendCalls int
}

func (s *stubStage) Open(ctx context.Context, explicit bool) error { return nil }
func (s *stubStage) Close(ctx context.Context) error               { return nil }

func (s *stubStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	s.sendCalls++
	return s.sendErr
}

func (s *stubStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	s.sendCalls += len(msgs)
	return s.sendErr
}

func (s *stubStage) Receive(ctx context.Context) (*messages.Message, error) {
	return messages.NewMessage(nil), nil
}

func (s *stubStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	return messages.NewMessage(nil), nil
}

func (s *stubStage) EnableMethods(ctx context.Context) error       { return nil }
func (s *stubStage) DisableMethods(ctx context.Context) error      { return nil }
func (s *stubStage) EnableEventReceive(ctx context.Context) error  { return nil }
func (s *stubStage) DisableEventReceive(ctx context.Context) error { return nil }
func (s *stubStage) EnableTwinPatch(ctx context.Context) error     { return nil }

func (s *stubStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	return messages.NewTwin("stub"), nil
}

func (s *stubStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return nil
}

func (s *stubStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return nil
}

func (s *stubStage) Complete(ctx context.Context, lockToken string) error { return nil }
func (s *stubStage) Abandon(ctx context.Context, lockToken string) error  { return nil }
func (s *stubStage) Reject(ctx context.Context, lockToken string) error   { return nil }

func (s *stubStage) RecoverConnections(ctx context.Context, connType pipeline.ConnectionType) error {
	return nil
}

// recordingMetrics captures what the middleware reports.
type recordingMetrics struct {
	MetricsProvider
	operations []string
	statuses   []string
	errors     []string
	sent       int
	opens      int
	states     []string
}

func newRecordingMetrics() *recordingMetrics { return &recordingMetrics{} }

func (r *recordingMetrics) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	r.operations = append(r.operations, operation)
	r.statuses = append(r.statuses, status)
}

func (r *recordingMetrics) RecordMessageSent(ctx context.Context, count int, status string, duration time.Duration) {
	r.sent += count
}

func (r *recordingMetrics) RecordMessageReceived(ctx context.Context, status string) {}

func (r *recordingMetrics) RecordOpenAttempt(ctx context.Context, status string, duration time.Duration) {
	r.opens++
}

func (r *recordingMetrics) RecordReset(ctx context.Context, reason string) {}

func (r *recordingMetrics) RecordConnectionState(ctx context.Context, state string) {
	r.states = append(r.states, state)
}

func (r *recordingMetrics) RecordError(ctx context.Context, category, operation string) {
	r.errors = append(r.errors, category)
}

func TestObservabilityMiddlewarePassThrough(t *testing.T) {
	tracing, err := NewTracingProvider(TracingConfig{
		ServiceName:  "test",
		ExporterType: ExporterTypeNoop,
	})
	require.NoError(t, err)
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	stub := &stubStage{}
	metrics := newRecordingMetrics()
	stage := NewObservabilityMiddleware(MiddlewareConfig{
		Tracing: tracing,
		Metrics: metrics,
	}).Wrap(stub)

	ctx := context.Background()
	require.NoError(t, stage.Open(ctx, true))
	require.NoError(t, stage.SendEvent(ctx, messages.NewMessage([]byte("t"))))
	require.NoError(t, stage.Close(ctx))

	assert.Equal(t, 1, stub.sendCalls)
	assert.Equal(t, 1, metrics.sent)
	assert.Equal(t, 1, metrics.opens)
	assert.Contains(t, metrics.operations, "open")
	assert.Contains(t, metrics.operations, "send_event")
	assert.Contains(t, metrics.operations, "close")
	assert.Equal(t, []string{"open", "closed"}, metrics.states)
}

func TestObservabilityMiddlewareRecordsFaultCategory(t *testing.T) {
	stub := &stubStage{sendErr: syscall.ECONNRESET}
	metrics := newRecordingMetrics()
	stage := NewObservabilityMiddleware(MiddlewareConfig{Metrics: metrics}).Wrap(stub)

	err := stage.SendEvent(context.Background(), messages.NewMessage(nil))
	require.Error(t, err)

	require.Len(t, metrics.errors, 1)
	assert.Equal(t, pipeline.ErrorCategoryTransientUnusable.String(), metrics.errors[0])
	require.NotEmpty(t, metrics.statuses)
	assert.Equal(t, "error", metrics.statuses[0])
}

func TestObservabilityMiddlewareNilProviders(t *testing.T) {
	stub := &stubStage{}
	stage := NewObservabilityMiddleware(MiddlewareConfig{}).Wrap(stub)

	require.NoError(t, stage.SendEvent(context.Background(), messages.NewMessage(nil)))
	assert.Equal(t, 1, stub.sendCalls)
}
