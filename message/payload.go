package message

import "encoding/json"

// Payload represents data carried over the message bus.
// All wire payloads implement this interface to provide validation
// and deterministic serialization.
//
// Example implementation:
//
//	type Heartbeat struct {
//	    GatewayID string `json:"gatewayId"`
//	    Timestamp string `json:"timestamp"`
//	}
//
//	func (h *Heartbeat) Validate() error {
//	    if h.GatewayID == "" {
//	        return errors.New("gateway ID is required")
//	    }
//	    return nil
//	}
//
//	func (h *Heartbeat) MarshalJSON() ([]byte, error) {
//	    // Use alias to avoid infinite recursion
//	    type Alias Heartbeat
//	    return json.Marshal((*Alias)(h))
//	}
//
//	func (h *Heartbeat) UnmarshalJSON(data []byte) error {
//	    type Alias Heartbeat
//	    return json.Unmarshal(data, (*Alias)(h))
//	}
type Payload interface {
	// Validate checks the payload data for correctness.
	// Returns nil if valid, or an error describing the validation failure.
	Validate() error

	// JSON serialization using standard Go interfaces. The same payload
	// must always produce the same JSON output.
	json.Marshaler
	json.Unmarshaler
}

var (
	_ Payload = (*TelemetryPayload)(nil)
	_ Payload = (*WriteCommand)(nil)
	_ Payload = (*WriteResult)(nil)
	_ Payload = (*Heartbeat)(nil)
)
