package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/edgewire/device-sdk-go/pkg/logging"
	"github.com/edgewire/device-sdk-go/pkg/messages"
)

// ConnectionType identifies one of the logical links a transport multiplexes
// over its physical connection. RecoverConnections uses it to name the link
// that needs re-establishing.
type ConnectionType int

const (
	// ConnectionTelemetry carries device-to-cloud event messages.
	ConnectionTelemetry ConnectionType = iota

	// ConnectionMethods carries direct method requests and responses.
	ConnectionMethods

	// ConnectionTwin carries twin reads and patches.
	ConnectionTwin

	// ConnectionEvents carries cloud-to-device messages.
	ConnectionEvents
)

// String returns the connection type name
func (ct ConnectionType) String() string {
	switch ct {
	case ConnectionTelemetry:
		return "telemetry"
	case ConnectionMethods:
		return "methods"
	case ConnectionTwin:
		return "twin"
	case ConnectionEvents:
		return "events"
	default:
		return "unknown"
	}
}

// Stage is the contract every pipeline stage implements. All operations are
// blocking and honor ctx for cancellation; caller-supplied timeouts are
// expressed as context deadlines.
//
// A Stage optionally wraps exactly one inner Stage; composition happens by
// delegation, never by inheritance of behavior.
type Stage interface {
	// Open establishes the connection. explicit distinguishes a
	// caller-initiated open from one triggered implicitly by another
	// operation requiring a connection.
	Open(ctx context.Context, explicit bool) error

	// Close tears the connection down. A closed stage is never reopened.
	Close(ctx context.Context) error

	// SendEvent sends a single device-to-cloud message.
	SendEvent(ctx context.Context, msg *messages.Message) error

	// SendEvents sends a batch of device-to-cloud messages.
	SendEvents(ctx context.Context, msgs []*messages.Message) error

	// Receive blocks until a cloud-to-device message arrives.
	Receive(ctx context.Context) (*messages.Message, error)

	// ReceiveTimeout is Receive bounded by a transport-visible timeout, so
	// transports that support native receive timeouts can use them.
	ReceiveTimeout(ctx context.Context, timeout time.Duration) (*messages.Message, error)

	// Feature toggles.
	EnableMethods(ctx context.Context) error
	DisableMethods(ctx context.Context) error
	EnableEventReceive(ctx context.Context) error
	DisableEventReceive(ctx context.Context) error
	EnableTwinPatch(ctx context.Context) error

	// Twin operations.
	GetTwin(ctx context.Context) (*messages.Twin, error)
	SendTwinPatch(ctx context.Context, properties *messages.TwinCollection) error

	// SendMethodResponse replies to a direct method invocation.
	SendMethodResponse(ctx context.Context, response *messages.MethodResponse) error

	// Message settlement by lock token.
	Complete(ctx context.Context, lockToken string) error
	Abandon(ctx context.Context, lockToken string) error
	Reject(ctx context.Context, lockToken string) error

	// RecoverConnections asks the transport to re-establish the named
	// logical link after a connection-recovery notification.
	RecoverConnections(ctx context.Context, connType ConnectionType) error
}

// StageContext carries what a StageFactory needs to construct a transport
// stage for one connection attempt.
type StageContext struct {
	DeviceID string
	Endpoint string
	Logger   logging.Logger
}

// StageFactory builds a fresh inner Stage. The ResilientStage invokes it on
// every physical open attempt, so implementations must return a new instance
// each call rather than a shared one.
type StageFactory func(sc *StageContext) Stage

// Middleware wraps a Stage to add functionality like resilience or
// observability.
type Middleware interface {
	// Wrap wraps the given stage with middleware functionality
	Wrap(stage Stage) Stage
}

// MiddlewareFunc is an adapter to allow the use of ordinary functions as middleware
type MiddlewareFunc func(Stage) Stage

// Wrap implements the Middleware interface
func (f MiddlewareFunc) Wrap(s Stage) Stage {
	return f(s)
}

// ChainMiddleware chains multiple middleware together
func ChainMiddleware(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(stage Stage) Stage {
		// Apply middleware in reverse order so the first middleware is the outermost
		for i := len(middleware) - 1; i >= 0; i-- {
			stage = middleware[i].Wrap(stage)
		}
		return stage
	})
}

// FeatureConfig controls which optional middleware NewPipeline applies.
type FeatureConfig struct {
	EnableDiagnostics bool `json:"enable_diagnostics"`
}

// Config is the unified configuration for a pipeline.
type Config struct {
	// DeviceID identifies the logical device this pipeline serves.
	DeviceID string `json:"device_id"`

	// Endpoint is the service endpoint handed to the stage factory.
	Endpoint string `json:"endpoint,omitempty"`

	// Factory constructs a fresh transport stage per open attempt.
	Factory StageFactory `json:"-"`

	// Logger receives diagnostic output. Defaults to a no-op logger.
	Logger logging.Logger `json:"-"`

	// Middleware is applied outermost-first around the resilient stage,
	// outside the middleware selected by Features. The observability
	// middleware plugs in here.
	Middleware []Middleware `json:"-"`

	// Features controls optional middleware.
	Features FeatureConfig `json:"features"`
}

// DefaultConfig returns a pipeline configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Features: FeatureConfig{
			EnableDiagnostics: true,
		},
	}
}

// NewPipeline creates a resilient pipeline around the configured stage
// factory, applying the middleware selected by config.Features.
func NewPipeline(config Config) (Stage, error) {
	if config.Factory == nil {
		return nil, errors.New("pipeline: stage factory is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	sc := &StageContext{
		DeviceID: config.DeviceID,
		Endpoint: config.Endpoint,
		Logger:   logger,
	}

	var stage Stage = NewResilientStage(config.Factory, sc, logger)

	middleware := append([]Middleware{}, config.Middleware...)
	if config.Features.EnableDiagnostics {
		middleware = append(middleware, NewDiagnosticsMiddleware(logger))
	}

	return ChainMiddleware(middleware...).Wrap(stage), nil
}
