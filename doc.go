// Package devicesdk is the root of the device SDK for Go, providing
// convenient exports of the core components from the sub-packages.
//
// # Overview
//
// The SDK consists of several sub-packages:
//
//   - pkg/pipeline: The resilience layer: idempotent connection opening,
//     fault classification, and reset-on-failure around a transport stage
//   - pkg/messages: Wire-facing value types: messages, twins, direct methods
//   - pkg/errors: Structured errors with stable codes, categories, and severities
//   - pkg/logging: Structured logging with text and JSON formatters
//   - pkg/observability: OpenTelemetry tracing and Prometheus metrics
//
// # Creating a Pipeline
//
// A transport implements pipeline.Stage; the SDK wraps it with resilience:
//
//	config := devicesdk.DefaultConfig()
//	config.DeviceID = "thermostat-01"
//	config.Endpoint = "hub.example.com:8883"
//	config.Factory = func(sc *devicesdk.StageContext) devicesdk.Stage {
//		return mqtt.NewStage(sc)
//	}
//
//	stage, err := devicesdk.NewPipeline(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer stage.Close(context.Background())
//
//	err = stage.SendEvent(ctx, messages.NewMessage(payload))
//
// Operations open the connection implicitly when needed; concurrent callers
// share a single physical open attempt. Transient faults surface as the
// canonical transient error (pkg/errors.IsTransient) so callers can branch
// retry logic on one signal.
package devicesdk
