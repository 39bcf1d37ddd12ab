// Package messages defines the value types exchanged between a device client
// and the cloud messaging service: telemetry messages, device twin documents,
// and direct method requests/responses.
//
// These types are deliberately transport-agnostic. The concrete wire encoding
// (AMQP, MQTT, HTTP) is owned by the transport stage implementations; this
// package only carries the data they all agree on.
package messages
