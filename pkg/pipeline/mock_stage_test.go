package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgewire/device-sdk-go/pkg/messages"
)

// mockStage is a test stage that allows us to control behavior per
// operation. Unset funcs succeed.
type mockStage struct {
	openFunc      func(ctx context.Context, explicit bool) error
	closeFunc     func(ctx context.Context) error
	sendEventFunc func(ctx context.Context, msg *messages.Message) error
	receiveFunc   func(ctx context.Context) (*messages.Message, error)
	getTwinFunc   func(ctx context.Context) (*messages.Twin, error)

	openCalls  atomic.Int32
	closeCalls atomic.Int32
	sendCalls  atomic.Int32
}

func (m *mockStage) Open(ctx context.Context, explicit bool) error {
	m.openCalls.Add(1)
	if m.openFunc != nil {
		return m.openFunc(ctx, explicit)
	}
	return nil
}

func (m *mockStage) Close(ctx context.Context) error {
	m.closeCalls.Add(1)
	if m.closeFunc != nil {
		return m.closeFunc(ctx)
	}
	return nil
}

func (m *mockStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	m.sendCalls.Add(1)
	if m.sendEventFunc != nil {
		return m.sendEventFunc(ctx, msg)
	}
	return nil
}

func (m *mockStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	m.sendCalls.Add(1)
	if m.sendEventFunc != nil {
		for _, msg := range msgs {
			if err := m.sendEventFunc(ctx, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *mockStage) Receive(ctx context.Context) (*messages.Message, error) {
	if m.receiveFunc != nil {
		return m.receiveFunc(ctx)
	}
	return messages.NewMessage([]byte("mock")), nil
}

func (m *mockStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	return m.Receive(ctx)
}

func (m *mockStage) EnableMethods(ctx context.Context) error        { return nil }
func (m *mockStage) DisableMethods(ctx context.Context) error       { return nil }
func (m *mockStage) EnableEventReceive(ctx context.Context) error   { return nil }
func (m *mockStage) DisableEventReceive(ctx context.Context) error  { return nil }
func (m *mockStage) EnableTwinPatch(ctx context.Context) error      { return nil }
func (m *mockStage) Complete(ctx context.Context, token string) error { return nil }
func (m *mockStage) Abandon(ctx context.Context, token string) error  { return nil }
func (m *mockStage) Reject(ctx context.Context, token string) error   { return nil }

func (m *mockStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	if m.getTwinFunc != nil {
		return m.getTwinFunc(ctx)
	}
	return &messages.Twin{}, nil
}

func (m *mockStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return nil
}

func (m *mockStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return nil
}

func (m *mockStage) RecoverConnections(ctx context.Context, connType ConnectionType) error {
	return nil
}

// mockFactory tracks every stage it builds so tests can inspect superseded
// instances after a reset.
type mockFactory struct {
	mu       sync.Mutex
	stages   []*mockStage
	makeMock func() *mockStage
}

func newMockFactory(makeMock func() *mockStage) *mockFactory {
	if makeMock == nil {
		makeMock = func() *mockStage { return &mockStage{} }
	}
	return &mockFactory{makeMock: makeMock}
}

func (f *mockFactory) factory(sc *StageContext) Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	stage := f.makeMock()
	f.stages = append(f.stages, stage)
	return stage
}

func (f *mockFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stages)
}

func (f *mockFactory) stage(i int) *mockStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stages[i]
}

func testStageContext() *StageContext {
	return &StageContext{DeviceID: "test-device", Endpoint: "test-endpoint"}
}

// waitFor polls cond until it holds or the deadline passes. Used for
// assertions about background disposal.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
