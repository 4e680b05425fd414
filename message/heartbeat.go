package message

import (
	"encoding/json"
	"fmt"

	"github.com/c360/fieldbridge/pkg/timestamp"
)

// Heartbeat is the periodic liveness payload published by the gateway.
type Heartbeat struct {
	GatewayID   string `json:"gatewayId"`
	Site        string `json:"site"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
	DeviceCount int    `json:"deviceCount"`
	PointCount  int    `json:"pointCount"`
	// BusState is the current connection state name
	// (disconnected, connecting, connected).
	BusState      string  `json:"busState"`
	UptimeSeconds int64   `json:"uptimeSeconds"`
	MemoryRSS     uint64  `json:"memoryRssBytes"`
	MemoryPercent float64 `json:"memoryPercent"`
}

// Validate checks the payload data for correctness
func (h *Heartbeat) Validate() error {
	if h.GatewayID == "" {
		return fmt.Errorf("gateway id is required")
	}
	if h.Timestamp == "" {
		return fmt.Errorf("timestamp is required")
	}
	if timestamp.Parse(h.Timestamp).IsZero() {
		return fmt.Errorf("invalid timestamp %q", h.Timestamp)
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (h *Heartbeat) MarshalJSON() ([]byte, error) {
	type Alias Heartbeat
	return json.Marshal((*Alias)(h))
}

// UnmarshalJSON implements json.Unmarshaler
func (h *Heartbeat) UnmarshalJSON(data []byte) error {
	type Alias Heartbeat
	return json.Unmarshal(data, (*Alias)(h))
}
