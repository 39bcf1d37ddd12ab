package messages

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single device-to-cloud or cloud-to-device message.
//
// For cloud-to-device messages the LockToken identifies the message for
// settlement (complete/abandon/reject) against the service. The token is
// assigned by the transport on receipt and is opaque to callers.
type Message struct {
	// MessageID uniquely identifies the message for deduplication.
	MessageID string `json:"message_id"`

	// CorrelationID ties a response message back to its request.
	CorrelationID string `json:"correlation_id,omitempty"`

	// LockToken is the settlement handle for received messages.
	LockToken string `json:"lock_token,omitempty"`

	// To is the destination endpoint, when the transport requires one.
	To string `json:"to,omitempty"`

	ContentType     string `json:"content_type,omitempty"`
	ContentEncoding string `json:"content_encoding,omitempty"`

	// Payload is the opaque message body.
	Payload []byte `json:"payload,omitempty"`

	// Properties carries application-defined key/value pairs.
	Properties map[string]string `json:"properties,omitempty"`

	// EnqueuedAt is set by the service for received messages.
	EnqueuedAt time.Time `json:"enqueued_at,omitempty"`

	// ExpiresAt, when non-zero, is the absolute expiry of the message.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// DeliveryCount is the number of delivery attempts the service has made.
	DeliveryCount int `json:"delivery_count,omitempty"`
}

// NewMessage creates a message with the given payload and a fresh MessageID.
func NewMessage(payload []byte) *Message {
	return &Message{
		MessageID:  uuid.NewString(),
		Payload:    payload,
		Properties: make(map[string]string),
	}
}

// WithProperty sets an application property and returns the message for chaining.
func (m *Message) WithProperty(key, value string) *Message {
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[key] = value
	return m
}

// IsExpired reports whether the message has an expiry in the past.
func (m *Message) IsExpired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && m.ExpiresAt.Before(now)
}

// NewLockToken generates a settlement token for a received message.
// Transports that do not supply their own tokens use this.
func NewLockToken() string {
	return uuid.NewString()
}
