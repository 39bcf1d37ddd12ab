// Package pipeline implements the resilient transport pipeline of the device
// SDK: the layer between the client facade and the protocol-specific
// transport stages.
//
// A pipeline is a chain of Stages, each optionally wrapping one inner Stage.
// The ResilientStage is the interesting link: it coordinates single-flight
// connection opening across concurrent callers, classifies every transport
// fault into a fixed taxonomy, and atomically tears down and replaces the
// inner transport stage when a fault renders it unusable.
//
// Concrete transports are supplied through a StageFactory and are outside
// this package; pipeline only assumes they implement Stage.
//
// Usage:
//
//	config := pipeline.DefaultConfig()
//	config.DeviceID = "device-1"
//	config.Factory = mytransport.NewStage
//	stage, err := pipeline.NewPipeline(config)
package pipeline
