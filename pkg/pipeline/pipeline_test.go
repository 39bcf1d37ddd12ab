package pipeline

import (
	"context"
	"testing"

	"github.com/edgewire/device-sdk-go/pkg/messages"
)

func TestNewPipelineRequiresFactory(t *testing.T) {
	_, err := NewPipeline(Config{DeviceID: "dev1"})
	if err == nil {
		t.Fatal("expected error for missing factory")
	}
}

func TestNewPipelineRoundTrip(t *testing.T) {
	f := newMockFactory(nil)
	config := DefaultConfig()
	config.DeviceID = "dev1"
	config.Endpoint = "hub.example.com"
	config.Factory = f.factory

	stage, err := NewPipeline(config)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	if err := stage.Open(context.Background(), true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := stage.SendEvent(context.Background(), messages.NewMessage([]byte("t"))); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := stage.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := f.count(); got != 1 {
		t.Errorf("expected 1 stage, got %d", got)
	}
}

func TestFactoryReceivesStageContext(t *testing.T) {
	var seen *StageContext
	factory := func(sc *StageContext) Stage {
		seen = sc
		return &mockStage{}
	}

	config := DefaultConfig()
	config.DeviceID = "dev1"
	config.Endpoint = "hub.example.com"
	config.Factory = factory

	stage, err := NewPipeline(config)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := stage.Open(context.Background(), true); err != nil {
		t.Fatalf("open: %v", err)
	}

	if seen == nil {
		t.Fatal("factory never invoked")
	}
	if seen.DeviceID != "dev1" || seen.Endpoint != "hub.example.com" {
		t.Errorf("unexpected stage context: %+v", seen)
	}
	if seen.Logger == nil {
		t.Error("expected a default logger in the stage context")
	}
}

func TestConfigMiddlewareApplied(t *testing.T) {
	var order []string
	outer := MiddlewareFunc(func(next Stage) Stage {
		return &taggedStage{ForwardingStage: NewForwardingStage(next), name: "custom", order: &order}
	})

	f := newMockFactory(nil)
	config := DefaultConfig()
	config.DeviceID = "dev1"
	config.Factory = f.factory
	config.Middleware = []Middleware{outer}

	stage, err := NewPipeline(config)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := stage.Open(context.Background(), true); err != nil {
		t.Fatalf("open: %v", err)
	}

	if len(order) != 1 || order[0] != "custom" {
		t.Errorf("configured middleware never ran: %v", order)
	}
	if got := f.stage(0).openCalls.Load(); got != 1 {
		t.Errorf("open did not reach the inner stage: %d calls", got)
	}
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return MiddlewareFunc(func(next Stage) Stage {
			inner := NewForwardingStage(next)
			return &taggedStage{ForwardingStage: inner, name: name, order: &order}
		})
	}

	mock := &mockStage{}
	stage := ChainMiddleware(tag("outer"), tag("inner")).Wrap(mock)

	if err := stage.Open(context.Background(), true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("expected outer before inner, got %v", order)
	}
}

type taggedStage struct {
	*ForwardingStage
	name  string
	order *[]string
}

func (ts *taggedStage) Open(ctx context.Context, explicit bool) error {
	*ts.order = append(*ts.order, ts.name)
	return ts.ForwardingStage.Open(ctx, explicit)
}

func TestForwardingStageDelegates(t *testing.T) {
	mock := &mockStage{}
	fs := NewForwardingStage(mock)

	ctx := context.Background()
	if err := fs.Open(ctx, true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := fs.SendEvent(ctx, messages.NewMessage(nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := fs.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	if mock.openCalls.Load() != 1 || mock.sendCalls.Load() != 1 || mock.closeCalls.Load() != 1 {
		t.Errorf("delegation missed: open=%d send=%d close=%d",
			mock.openCalls.Load(), mock.sendCalls.Load(), mock.closeCalls.Load())
	}
	if fs.Inner() != mock {
		t.Error("Inner did not return the wrapped stage")
	}
}

func TestConnectionTypeString(t *testing.T) {
	names := map[ConnectionType]string{
		ConnectionTelemetry: "telemetry",
		ConnectionMethods:   "methods",
		ConnectionTwin:      "twin",
		ConnectionEvents:    "events",
	}
	for ct, want := range names {
		if got := ct.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", ct, got, want)
		}
	}
}
