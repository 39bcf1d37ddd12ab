// Package pkg contains the sub-packages of the device SDK.
//
// The resilience layer lives in pkg/pipeline. It wraps transport stages
// produced by a caller-supplied factory with idempotent connection opening,
// fault classification, and reset-on-failure. Value types for telemetry,
// twins, and direct methods live in pkg/messages; structured errors in
// pkg/errors; logging in pkg/logging; tracing and metrics in
// pkg/observability.
package pkg
