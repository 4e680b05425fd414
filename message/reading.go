package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360/fieldbridge/pkg/timestamp"
)

// Quality values carried on readings.
const (
	QualityGood = "good"
	QualityBad  = "bad"
)

// Reading is a single sampled point value flowing from the poll
// scheduler to the publisher. The value and timestamp describe the
// sample; the remaining fields carry the point identity the sinks need
// to store and route it.
type Reading struct {
	DeviceID       uint32
	ObjectType     string
	ObjectInstance uint32

	SemanticName string
	DisplayName  string
	Units        string

	Value     float64
	Quality   string
	Timestamp time.Time

	// QoS is the bus delivery level configured for the point.
	QoS byte
	// BusPublish gates delivery to the message-bus sink; the storage
	// sinks receive the reading regardless.
	BusPublish bool
}

// ObjectID returns the object identity as "<type>-<instance>", the form
// used as the object segment of telemetry topics.
func (r *Reading) ObjectID() string {
	return fmt.Sprintf("%s-%d", r.ObjectType, r.ObjectInstance)
}

// Equipment returns the equipment segment derived from the semantic
// name (second dot-delimited segment), or "unknown" when the name is
// too short to carry one.
func (r *Reading) Equipment() string {
	parts := strings.Split(r.SemanticName, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "unknown"
	}
	return parts[1]
}

// Telemetry builds the wire payload for this reading. utcOffsetHours is
// the site's configured timezone offset carried alongside the UTC
// timestamp.
func (r *Reading) Telemetry(utcOffsetHours int) *TelemetryPayload {
	return &TelemetryPayload{
		Value:          r.Value,
		Timestamp:      timestamp.Format(r.Timestamp),
		UTCOffset:      utcOffsetHours,
		Units:          r.Units,
		Quality:        r.Quality,
		DisplayName:    r.DisplayName,
		SemanticName:   r.SemanticName,
		ObjectType:     r.ObjectType,
		ObjectInstance: r.ObjectInstance,
	}
}

// TelemetryPayload is the JSON document published on telemetry topics.
type TelemetryPayload struct {
	Value          float64 `json:"presentValue"`
	Timestamp      string  `json:"timestamp"`
	UTCOffset      int     `json:"utcOffset"`
	Units          string  `json:"units,omitempty"`
	Quality        string  `json:"quality"`
	DisplayName    string  `json:"displayName,omitempty"`
	SemanticName   string  `json:"semanticName"`
	ObjectType     string  `json:"objectType"`
	ObjectInstance uint32  `json:"objectInstance"`
}

// Validate checks the payload data for correctness
func (p *TelemetryPayload) Validate() error {
	if p.Timestamp == "" {
		return errors.New("timestamp is required")
	}
	if timestamp.Parse(p.Timestamp).IsZero() {
		return fmt.Errorf("invalid timestamp %q", p.Timestamp)
	}
	if p.SemanticName == "" {
		return errors.New("semantic name is required")
	}
	if p.ObjectType == "" {
		return errors.New("object type is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (p *TelemetryPayload) MarshalJSON() ([]byte, error) {
	type Alias TelemetryPayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler
func (p *TelemetryPayload) UnmarshalJSON(data []byte) error {
	type Alias TelemetryPayload
	return json.Unmarshal(data, (*Alias)(p))
}
