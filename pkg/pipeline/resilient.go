package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	deverrors "github.com/edgewire/device-sdk-go/pkg/errors"
	"github.com/edgewire/device-sdk-go/pkg/logging"
	"github.com/edgewire/device-sdk-go/pkg/messages"
)

// resetCloseTimeout bounds the background close of a superseded stage.
const resetCloseTimeout = 30 * time.Second

// openAttempt is the lifecycle token for one physical connection-open
// attempt, paired with the inner stage built for that attempt. Both are
// captured in one immutable value so a snapshot of (token, stage) is a
// single atomic load. resolve settles the attempt exactly once.
type openAttempt struct {
	id    string
	stage Stage
	done  chan struct{}
	err   error // written once by resolve, before done closes
}

func newOpenAttempt(stage Stage) *openAttempt {
	return &openAttempt{
		id:    uuid.NewString(),
		stage: stage,
		done:  make(chan struct{}),
	}
}

// resolve settles the attempt. Only the caller that installed the attempt
// calls this, after the physical open finished one way or the other.
func (a *openAttempt) resolve(err error) {
	a.err = err
	close(a.done)
}

// wait blocks until the attempt settles or ctx unwinds. Cancellation unwinds
// only this waiter; the open keeps running for everyone else sharing the
// attempt.
func (a *openAttempt) wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return deverrors.OperationCancelled("Open", ctx.Err())
	}
}

// ResilientStage wraps the transport stages produced by a StageFactory with
// idempotent connection opening, fault classification, and reset-on-failure.
//
// State machine per instance: Closed -> Opening -> Open -> (on unusable
// fault) Resetting -> Closed. Opening is shared by concurrent callers, but
// only the one whose compare-and-swap installed the attempt drives the
// transition. The only mutable shared state is the current attempt pointer;
// it is mutated exclusively via compare-and-swap, never read-then-written
// without re-validation.
type ResilientStage struct {
	factory StageFactory
	sc      *StageContext
	logger  logging.Logger

	current atomic.Pointer[openAttempt]
	closed  atomic.Bool
}

// NewResilientStage creates a resilient stage around factory. The stage
// lives for the client's lifetime; the inner stages it builds churn across
// reconnects.
func NewResilientStage(factory StageFactory, sc *StageContext, logger logging.Logger) *ResilientStage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ResilientStage{
		factory: factory,
		sc:      sc,
		logger:  logger.WithFields(logging.String("component", "resilient_stage")),
	}
}

// ensureOpen guarantees an established connection, performing at most one
// physical open attempt at a time. All callers racing here observe one
// consistent outcome: the winner of the compare-and-swap drives the open,
// everyone else waits on the same attempt.
func (rs *ResilientStage) ensureOpen(ctx context.Context, explicit bool) (*openAttempt, error) {
	for {
		if rs.closed.Load() {
			return nil, deverrors.ClientClosed("Open")
		}

		if attempt := rs.current.Load(); attempt != nil {
			if err := attempt.wait(ctx); err != nil {
				return nil, err
			}
			return attempt, nil
		}

		attempt := newOpenAttempt(NewForwardingStage(rs.factory(rs.sc)))
		if !rs.current.CompareAndSwap(nil, attempt) {
			// Another caller won the installation; share its outcome.
			continue
		}

		if rs.closed.Load() {
			// Close raced the installation. Undo it; whoever detaches the
			// attempt owns the disposal. When the swap fails, Close already
			// took the attempt and closes the stage itself.
			err := deverrors.ClientClosed("Open")
			attempt.resolve(err)
			if rs.current.CompareAndSwap(attempt, nil) {
				go rs.disposeStage(attempt.stage)
			}
			return nil, err
		}

		rs.logger.Debug("opening transport stage",
			logging.String("attempt_id", attempt.id),
			logging.Bool("explicit", explicit))

		err := rs.openInstalled(ctx, attempt, explicit)
		attempt.resolve(err)
		if err != nil {
			return nil, err
		}
		return attempt, nil
	}
}

// openInstalled performs the physical open for an attempt this caller
// installed, with full fault handling. A failed open always invalidates the
// attempt: unlike the per-operation path in guard, even a transient fault
// that leaves the channel usable resets here, because the attempt it belongs
// to never became usable. Waiters sharing the attempt observe the same
// outcome through resolve.
func (rs *ResilientStage) openInstalled(ctx context.Context, attempt *openAttempt, explicit bool) error {
	err := attempt.stage.Open(ctx, explicit)
	if err == nil {
		return nil
	}

	if deverrors.IsFatal(err) {
		// Fatal faults detach the token but skip cleanup entirely; the
		// process may be in no state to run it.
		rs.current.CompareAndSwap(attempt, nil)
		return err
	}

	switch cat := Classify(err); cat {
	case ErrorCategoryTransientRecoverable, ErrorCategoryTransientUnusable:
		rs.logger.Info("transport open failed with transient fault",
			logging.String("attempt_id", attempt.id),
			logging.String("category", cat.String()),
			logging.ErrorField(err))
		rs.reset(attempt)
		return canonicalTransient(err)
	default:
		rs.logger.Error("transport open failed",
			logging.String("attempt_id", attempt.id),
			logging.String("category", cat.String()),
			logging.ErrorField(err))
		rs.reset(attempt)
		return err
	}
}

// guard applies the per-operation fault handling using the attempt snapshot
// captured before the operation ran. Fatal faults bypass everything;
// transient faults are canonicalized, resetting first only when the channel
// is unusable; every other fault resets and propagates unchanged.
func (rs *ResilientStage) guard(attempt *openAttempt, op string, err error) error {
	if err == nil {
		return nil
	}

	if deverrors.IsFatal(err) {
		return err
	}

	switch cat := Classify(err); cat {
	case ErrorCategoryTransientRecoverable:
		rs.logger.Debug("transient fault, channel still usable",
			logging.String("operation", op),
			logging.ErrorField(err))
		return canonicalTransient(err)
	case ErrorCategoryTransientUnusable:
		rs.logger.Info("transient fault broke the channel",
			logging.String("operation", op),
			logging.String("attempt_id", attempt.id),
			logging.ErrorField(err))
		rs.reset(attempt)
		return canonicalTransient(err)
	default:
		rs.logger.Warn("non-transient fault",
			logging.String("operation", op),
			logging.String("category", cat.String()),
			logging.ErrorField(err))
		rs.reset(attempt)
		return err
	}
}

// canonicalTransient wraps err as the canonical transient error unless it
// already is one.
func canonicalTransient(err error) error {
	if devErr, ok := deverrors.AsDeviceError(err); ok && devErr.Code() == deverrors.CodeTransient {
		return err
	}
	return deverrors.Transient(err)
}

// reset detaches attempt from current and disposes its stage. The
// compare-and-swap is the single synchronization point: when two callers
// observe the same failure concurrently, only the one whose swap succeeds
// performs cleanup, so any given stage is disposed at most once. If the swap
// fails the attempt was already superseded and whoever superseded it owns
// the disposal.
func (rs *ResilientStage) reset(expected *openAttempt) {
	if !rs.current.CompareAndSwap(expected, nil) {
		return
	}
	rs.logger.Info("resetting transport stage",
		logging.String("attempt_id", expected.id))
	go rs.disposeStage(expected.stage)
}

// disposeStage closes a superseded stage. Faults during cleanup are logged
// and swallowed: they must never mask the fault that triggered the reset,
// and never reach the caller of the operation that triggered it.
func (rs *ResilientStage) disposeStage(stage Stage) {
	ctx, cancel := context.WithTimeout(context.Background(), resetCloseTimeout)
	defer cancel()
	if err := stage.Close(ctx); err != nil {
		rs.logger.Warn("failed to close superseded transport stage",
			logging.ErrorField(err))
	}
}

// invoke runs fn against the current inner stage, establishing the
// connection first and applying fault handling to the outcome. The attempt
// returned by ensureOpen is the atomic snapshot of (token, inner stage) the
// reset is validated against.
func (rs *ResilientStage) invoke(ctx context.Context, op string, fn func(Stage) error) error {
	attempt, err := rs.ensureOpen(ctx, false)
	if err != nil {
		return err
	}
	return rs.guard(attempt, op, fn(attempt.stage))
}

// invokeResult is invoke for operations that return a value.
func invokeResult[T any](rs *ResilientStage, ctx context.Context, op string, fn func(Stage) (T, error)) (T, error) {
	var zero T
	attempt, err := rs.ensureOpen(ctx, false)
	if err != nil {
		return zero, err
	}
	result, opErr := fn(attempt.stage)
	if guarded := rs.guard(attempt, op, opErr); guarded != nil {
		return zero, guarded
	}
	return result, nil
}

// Open establishes the connection, sharing any in-flight attempt.
func (rs *ResilientStage) Open(ctx context.Context, explicit bool) error {
	_, err := rs.ensureOpen(ctx, explicit)
	return err
}

// Close permanently disposes the stage. Any in-flight open is abandoned (its
// waiters still observe the winner's outcome) and any open inner stage is
// closed. There is no reopening a closed ResilientStage.
func (rs *ResilientStage) Close(ctx context.Context) error {
	if !rs.closed.CompareAndSwap(false, true) {
		return nil
	}
	attempt := rs.current.Swap(nil)
	if attempt == nil {
		return nil
	}
	return attempt.stage.Close(ctx)
}

// SendEvent sends a single device-to-cloud message with fault handling.
func (rs *ResilientStage) SendEvent(ctx context.Context, msg *messages.Message) error {
	return rs.invoke(ctx, "SendEvent", func(s Stage) error {
		return s.SendEvent(ctx, msg)
	})
}

// SendEvents sends a batch of device-to-cloud messages with fault handling.
func (rs *ResilientStage) SendEvents(ctx context.Context, msgs []*messages.Message) error {
	return rs.invoke(ctx, "SendEvents", func(s Stage) error {
		return s.SendEvents(ctx, msgs)
	})
}

// Receive blocks for the next cloud-to-device message with fault handling.
func (rs *ResilientStage) Receive(ctx context.Context) (*messages.Message, error) {
	return invokeResult(rs, ctx, "Receive", func(s Stage) (*messages.Message, error) {
		return s.Receive(ctx)
	})
}

// ReceiveTimeout is Receive bounded by a transport-visible timeout.
func (rs *ResilientStage) ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error) {
	return invokeResult(rs, ctx, "ReceiveTimeout", func(s Stage) (*messages.Message, error) {
		return s.ReceiveTimeout(ctx, timeout)
	})
}

// EnableMethods enables direct method dispatch with fault handling.
func (rs *ResilientStage) EnableMethods(ctx context.Context) error {
	return rs.invoke(ctx, "EnableMethods", func(s Stage) error {
		return s.EnableMethods(ctx)
	})
}

// DisableMethods disables direct method dispatch with fault handling.
func (rs *ResilientStage) DisableMethods(ctx context.Context) error {
	return rs.invoke(ctx, "DisableMethods", func(s Stage) error {
		return s.DisableMethods(ctx)
	})
}

// EnableEventReceive enables cloud-to-device message delivery with fault handling.
func (rs *ResilientStage) EnableEventReceive(ctx context.Context) error {
	return rs.invoke(ctx, "EnableEventReceive", func(s Stage) error {
		return s.EnableEventReceive(ctx)
	})
}

// DisableEventReceive disables cloud-to-device message delivery with fault handling.
func (rs *ResilientStage) DisableEventReceive(ctx context.Context) error {
	return rs.invoke(ctx, "DisableEventReceive", func(s Stage) error {
		return s.DisableEventReceive(ctx)
	})
}

// EnableTwinPatch enables desired-property patch delivery with fault handling.
func (rs *ResilientStage) EnableTwinPatch(ctx context.Context) error {
	return rs.invoke(ctx, "EnableTwinPatch", func(s Stage) error {
		return s.EnableTwinPatch(ctx)
	})
}

// GetTwin fetches the device twin with fault handling.
func (rs *ResilientStage) GetTwin(ctx context.Context) (*messages.Twin, error) {
	return invokeResult(rs, ctx, "GetTwin", func(s Stage) (*messages.Twin, error) {
		return s.GetTwin(ctx)
	})
}

// SendTwinPatch reports property updates with fault handling.
func (rs *ResilientStage) SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error {
	return rs.invoke(ctx, "SendTwinPatch", func(s Stage) error {
		return s.SendTwinPatch(ctx, properties)
	})
}

// SendMethodResponse replies to a direct method invocation with fault handling.
func (rs *ResilientStage) SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error {
	return rs.invoke(ctx, "SendMethodResponse", func(s Stage) error {
		return s.SendMethodResponse(ctx, response)
	})
}

// Complete settles a received message as processed.
func (rs *ResilientStage) Complete(ctx context.Context, lockToken string) error {
	return rs.invoke(ctx, "Complete", func(s Stage) error {
		return s.Complete(ctx, lockToken)
	})
}

// Abandon returns a received message to the queue for redelivery.
func (rs *ResilientStage) Abandon(ctx context.Context, lockToken string) error {
	return rs.invoke(ctx, "Abandon", func(s Stage) error {
		return s.Abandon(ctx, lockToken)
	})
}

// Reject settles a received message as unprocessable.
func (rs *ResilientStage) Reject(ctx context.Context, lockToken string) error {
	return rs.invoke(ctx, "Reject", func(s Stage) error {
		return s.Reject(ctx, lockToken)
	})
}

// RecoverConnections asks the transport to re-establish a logical link.
func (rs *ResilientStage) RecoverConnections(ctx context.Context, connType ConnectionType) error {
	return rs.invoke(ctx, "RecoverConnections", func(s Stage) error {
		return s.RecoverConnections(ctx, connType)
	})
}
