package messages

import "github.com/google/uuid"

// MethodRequest is a direct method invocation received from the service.
type MethodRequest struct {
	// RequestID correlates the response the device sends back.
	RequestID string `json:"request_id"`

	// Name is the method being invoked.
	Name string `json:"name"`

	// Payload is the JSON-encoded method argument.
	Payload []byte `json:"payload,omitempty"`
}

// NewMethodRequest creates a method request with a fresh RequestID.
func NewMethodRequest(name string, payload []byte) *MethodRequest {
	return &MethodRequest{
		RequestID: uuid.NewString(),
		Name:      name,
		Payload:   payload,
	}
}

// MethodResponse is the device's reply to a direct method invocation.
type MethodResponse struct {
	// RequestID echoes the RequestID of the triggering MethodRequest.
	RequestID string `json:"request_id"`

	// Status is an HTTP-style status code chosen by the method handler.
	Status int `json:"status"`

	// Payload is the JSON-encoded method result.
	Payload []byte `json:"payload,omitempty"`
}

// NewMethodResponse builds a response correlated to the given request.
func NewMethodResponse(req *MethodRequest, status int, payload []byte) *MethodResponse {
	return &MethodResponse{
		RequestID: req.RequestID,
		Status:    status,
		Payload:   payload,
	}
}
