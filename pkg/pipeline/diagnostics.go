package pipeline

import (
	"context"
	"time"

	"github.com/edgewire/device-sdk-go/pkg/logging"
	"github.com/edgewire/device-sdk-go/pkg/messages"
)

// DiagnosticsMiddleware logs the entry, exit, and error points of every
// pipeline operation. It is purely observational and never affects control
// flow or results.
type DiagnosticsMiddleware struct {
	logger logging.Logger
}

// NewDiagnosticsMiddleware creates a new diagnostics middleware
func NewDiagnosticsMiddleware(logger logging.Logger) Middleware {
	return &DiagnosticsMiddleware{
		logger: logger.WithFields(logging.String("component", "pipeline")),
	}
}

// Wrap implements the Middleware interface
func (dm *DiagnosticsMiddleware) Wrap(stage Stage) Stage {
	return &diagnosticsStage{
		ForwardingStage: NewForwardingStage(stage),
		logger:          dm.logger,
	}
}

// diagnosticsStage wraps a stage with operation logging
type diagnosticsStage struct {
	*ForwardingStage
	logger logging.Logger
}

// observe runs fn, logging start, outcome, and duration.
func (d *diagnosticsStage) observe(op string, fn func() error) error {
	start := time.Now()
	d.logger.Debug("operation started", logging.String("operation", op))

	err := fn()
	duration := time.Since(start)

	if err != nil {
		d.logger.WithError(err).Error("operation failed",
			logging.String("operation", op),
			logging.Duration("duration", duration))
	} else {
		d.logger.Debug("operation succeeded",
			logging.String("operation", op),
			logging.Duration("duration", duration))
	}
	return err
}

func (d *diagnosticsStage) Open(ctx context.Context, explicit bool) error {
	return d.observe("Open", func() error {
		return d.ForwardingStage.Open(ctx, explicit)
	})
}

func (d *diagnosticsStage) Close(ctx context.Context) error {
	return d.observe("Close", func() error {
		return d.ForwardingStage.Close(ctx)
	})
}

func (d *diagnosticsStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	return d.observe("SendEvent", func() error {
		return d.ForwardingStage.SendEvent(ctx, msg)
	})
}

func (d *diagnosticsStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	return d.observe("SendEvents", func() error {
		return d.ForwardingStage.SendEvents(ctx, msgs)
	})
}

func (d *diagnosticsStage) Receive(ctx context.Context) (*messages.Message, error) {
	var msg *messages.Message
	err := d.observe("Receive", func() error {
		var innerErr error
		msg, innerErr = d.ForwardingStage.Receive(ctx)
		return innerErr
	})
	return msg, err
}

func (d *diagnosticsStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	var msg *messages.Message
	err := d.observe("ReceiveTimeout", func() error {
		var innerErr error
		msg, innerErr = d.ForwardingStage.ReceiveTimeout(ctx, timeout)
		return innerErr
	})
	return msg, err
}

func (d *diagnosticsStage) EnableMethods(ctx context.Context) error {
	return d.observe("EnableMethods", func() error {
		return d.ForwardingStage.EnableMethods(ctx)
	})
}

func (d *diagnosticsStage) DisableMethods(ctx context.Context) error {
	return d.observe("DisableMethods", func() error {
		return d.ForwardingStage.DisableMethods(ctx)
	})
}

func (d *diagnosticsStage) EnableEventReceive(ctx context.Context) error {
	return d.observe("EnableEventReceive", func() error {
		return d.ForwardingStage.EnableEventReceive(ctx)
	})
}

func (d *diagnosticsStage) DisableEventReceive(ctx context.Context) error {
	return d.observe("DisableEventReceive", func() error {
		return d.ForwardingStage.DisableEventReceive(ctx)
	})
}

func (d *diagnosticsStage) EnableTwinPatch(ctx context.Context) error {
	return d.observe("EnableTwinPatch", func() error {
		return d.ForwardingStage.EnableTwinPatch(ctx)
	})
}

func (d *diagnosticsStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	var twin *messages.Twin
	err := d.observe("GetTwin", func() error {
		var innerErr error
		twin, innerErr = d.ForwardingStage.GetTwin(ctx)
		return innerErr
	})
	return twin, err
}

func (d *diagnosticsStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return d.observe("SendTwinPatch", func() error {
		return d.ForwardingStage.SendTwinPatch(ctx, properties)
	})
}

func (d *diagnosticsStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return d.observe("SendMethodResponse", func() error {
		return d.ForwardingStage.SendMethodResponse(ctx, response)
	})
}

func (d *diagnosticsStage) Complete(ctx context.Context, lockToken string) error {
	return d.observe("Complete", func() error {
		return d.ForwardingStage.Complete(ctx, lockToken)
	})
}

func (d *diagnosticsStage) Abandon(ctx context.Context, lockToken string) error {
	return d.observe("Abandon", func() error {
		return d.ForwardingStage.Abandon(ctx, lockToken)
	})
}

func (d *diagnosticsStage) Reject(ctx context.Context, lockToken string) error {
	return d.observe("Reject", func() error {
		return d.ForwardingStage.Reject(ctx, lockToken)
	})
}

func (d *diagnosticsStage) RecoverConnections(ctx context.Context, connType ConnectionType) error {
	return d.observe("RecoverConnections", func() error {
		return d.ForwardingStage.RecoverConnections(ctx, connType)
	})
}
