package observability

import (
	"context"
	"time"

	"github.com/edgewire/device-sdk-go/pkg/messages"
	"github.com/edgewire/device-sdk-go/pkg/pipeline"
)

// MiddlewareConfig configures the observability middleware
type MiddlewareConfig struct {
	// Tracing provider; nil disables span creation.
	Tracing *TracingProvider

	// Metrics provider; nil disables metric recording.
	Metrics MetricsProvider
}

// ObservabilityMiddleware wraps every pipeline operation with a span and
// per-operation metrics. It observes only; results and errors pass through
// unchanged.
type ObservabilityMiddleware struct {
	config MiddlewareConfig
}

// NewObservabilityMiddleware creates observability middleware from the given
// providers.
func NewObservabilityMiddleware(config MiddlewareConfig) pipeline.Middleware {
	return &ObservabilityMiddleware{config: config}
}

// Wrap implements the pipeline.Middleware interface
func (om *ObservabilityMiddleware) Wrap(stage pipeline.Stage) pipeline.Stage {
	return &observedStage{
		ForwardingStage: pipeline.NewForwardingStage(stage),
		tracing:         om.config.Tracing,
		metrics:         om.config.Metrics,
	}
}

// observedStage instruments a stage with traces and metrics
type observedStage struct {
	*pipeline.ForwardingStage
	tracing *TracingProvider
	metrics MetricsProvider
}

// observe runs fn inside a span and records the outcome.
func (o *observedStage) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if o.tracing != nil {
		spanCtx, span := o.tracing.StartOperationSpan(ctx, op)
		ctx = spanCtx
		defer span.End()
	}

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		if o.tracing != nil {
			o.tracing.RecordError(ctx, err)
		}
		if o.metrics != nil {
			o.metrics.RecordError(ctx, pipeline.Classify(err).String(), op)
		}
	}

	if o.metrics != nil {
		o.metrics.RecordOperation(ctx, op, status, duration)
	}
	return err
}

func (o *observedStage) Open(ctx context.Context, explicit bool) error {
	start := time.Now()
	err := o.observe(ctx, "open", func(ctx context.Context) error {
		return o.ForwardingStage.Open(ctx, explicit)
	})
	if o.metrics != nil {
		status := "success"
		state := "open"
		if err != nil {
			status = "error"
			state = "closed"
		}
		o.metrics.RecordOpenAttempt(ctx, status, time.Since(start))
		o.metrics.RecordConnectionState(ctx, state)
	}
	return err
}

func (o *observedStage) Close(ctx context.Context) error {
	err := o.observe(ctx, "close", func(ctx context.Context) error {
		return o.ForwardingStage.Close(ctx)
	})
	if o.metrics != nil {
		o.metrics.RecordConnectionState(ctx, "closed")
	}
	return err
}

func (o *observedStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	start := time.Now()
	err := o.observe(ctx, "send_event", func(ctx context.Context) error {
		return o.ForwardingStage.SendEvent(ctx, msg)
	})
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordMessageSent(ctx, 1, status, time.Since(start))
	}
	return err
}

func (o *observedStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	start := time.Now()
	err := o.observe(ctx, "send_events", func(ctx context.Context) error {
		return o.ForwardingStage.SendEvents(ctx, msgs)
	})
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordMessageSent(ctx, len(msgs), status, time.Since(start))
	}
	return err
}

func (o *observedStage) Receive(ctx context.Context) (*messages.Message, error) {
	var msg *messages.Message
	err := o.observe(ctx, "receive", func(ctx context.Context) error {
		var innerErr error
		msg, innerErr = o.ForwardingStage.Receive(ctx)
		return innerErr
	})
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordMessageReceived(ctx, status)
	}
	return msg, err
}

func (o *observedStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	var msg *messages.Message
	err := o.observe(ctx, "receive_timeout", func(ctx context.Context) error {
		var innerErr error
		msg, innerErr = o.ForwardingStage.ReceiveTimeout(ctx, timeout)
		return innerErr
	})
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.metrics.RecordMessageReceived(ctx, status)
	}
	return msg, err
}

func (o *observedStage) EnableMethods(ctx context.Context) error {
	return o.observe(ctx, "enable_methods", func(ctx context.Context) error {
		return o.ForwardingStage.EnableMethods(ctx)
	})
}

func (o *observedStage) DisableMethods(ctx context.Context) error {
	return o.observe(ctx, "disable_methods", func(ctx context.Context) error {
		return o.ForwardingStage.DisableMethods(ctx)
	})
}

func (o *observedStage) EnableEventReceive(ctx context.Context) error {
	return o.observe(ctx, "enable_event_receive", func(ctx context.Context) error {
		return o.ForwardingStage.EnableEventReceive(ctx)
	})
}

func (o *observedStage) DisableEventReceive(ctx context.Context) error {
	return o.observe(ctx, "disable_event_receive", func(ctx context.Context) error {
		return o.ForwardingStage.DisableEventReceive(ctx)
	})
}

func (o *observedStage) EnableTwinPatch(ctx context.Context) error {
	return o.observe(ctx, "enable_twin_patch", func(ctx context.Context) error {
		return o.ForwardingStage.EnableTwinPatch(ctx)
	})
}

func (o *observedStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	var twin *messages.Twin
	err := o.observe(ctx, "get_twin", func(ctx context.Context) error {
		var innerErr error
		twin, innerErr = o.ForwardingStage.GetTwin(ctx)
		return innerErr
	})
	return twin, err
}

func (o *observedStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return o.observe(ctx, "send_twin_patch", func(ctx context.Context) error {
		return o.ForwardingStage.SendTwinPatch(ctx, properties)
	})
}

func (o *observedStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return o.observe(ctx, "send_method_response", func(ctx context.Context) error {
		return o.ForwardingStage.SendMethodResponse(ctx, response)
	})
}

func (o *observedStage) Complete(ctx context.Context, lockToken string) error {
	return o.observe(ctx, "complete", func(ctx context.Context) error {
		return o.ForwardingStage.Complete(ctx, lockToken)
	})
}

func (o *observedStage) Abandon(ctx context.Context, lockToken string) error {
	return o.observe(ctx, "abandon", func(ctx context.Context) error {
		return o.ForwardingStage.Abandon(ctx, lockToken)
	})
}

func (o *observedStage) Reject(ctx context.Context, lockToken string) error {
	return o.observe(ctx, "reject", func(ctx context.Context) error {
		return o.ForwardingStage.Reject(ctx, lockToken)
	})
}

func (o *observedStage) RecoverConnections(ctx context.Context, connType pipeline.ConnectionType) error {
	return o.observe(ctx, "recover_connections", func(ctx context.Context) error {
		return o.ForwardingStage.RecoverConnections(ctx, connType)
	})
}
