// Package devicesdk provides a resilient Go client layer for device-to-cloud
// messaging services.
package devicesdk

import (
	"github.com/edgewire/device-sdk-go/pkg/observability"
	"github.com/edgewire/device-sdk-go/pkg/pipeline"
)

// Version represents the current version of the SDK
const Version = "1.0.0"

// These exports provide direct access to the core SDK components
var (
	// NewPipeline builds a resilient pipeline around a stage factory
	NewPipeline = pipeline.NewPipeline

	// DefaultConfig returns a pipeline configuration with sensible defaults
	DefaultConfig = pipeline.DefaultConfig

	// NewResilientStage creates the resilience layer directly, without
	// optional middleware
	NewResilientStage = pipeline.NewResilientStage

	// ChainMiddleware composes stage middleware
	ChainMiddleware = pipeline.ChainMiddleware

	// NewObservabilityMiddleware wraps every pipeline operation with
	// spans and metrics; plug it into Config.Middleware
	NewObservabilityMiddleware = observability.NewObservabilityMiddleware

	// NewTracingProvider creates the OpenTelemetry tracing provider
	NewTracingProvider = observability.NewTracingProvider

	// NewMetricsProvider creates the Prometheus metrics provider
	NewMetricsProvider = observability.NewMetricsProvider
)

// Stage is the contract every pipeline stage implements.
type Stage = pipeline.Stage

// StageContext carries what a StageFactory needs to build a transport stage.
type StageContext = pipeline.StageContext

// StageFactory builds a fresh transport stage per connection attempt.
type StageFactory = pipeline.StageFactory

// Config is the unified pipeline configuration.
type Config = pipeline.Config

// ObservabilityConfig configures the observability middleware.
type ObservabilityConfig = observability.MiddlewareConfig
