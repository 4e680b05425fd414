package pointstore

import (
	"fmt"
	"strings"
	"time"
)

// SettableMarker is the semantic-name function segment that marks a
// point as a settable setpoint. Write commands targeting points whose
// function segment differs are rejected.
const SettableMarker = "sp"

// ObjectRef identifies an object on a field-bus device.
type ObjectRef struct {
	Type     string
	Instance uint32
}

// String returns the object identity as "<type>-<instance>".
func (o ObjectRef) String() string {
	return fmt.Sprintf("%s-%d", o.Type, o.Instance)
}

// PointKey uniquely identifies a point across the gateway.
type PointKey struct {
	DeviceID uint32
	Object   ObjectRef
}

// String returns the key as "<device>/<type>-<instance>".
func (k PointKey) String() string {
	return fmt.Sprintf("%d/%s", k.DeviceID, k.Object)
}

// Device is a field-bus device the gateway polls.
type Device struct {
	ID uint32
	// Name is a human-readable label.
	Name string
	// Address is the device's IP address or host name.
	Address string
	Port    int
	Enabled bool
}

// Point is a single configured data point on a device.
type Point struct {
	DeviceID uint32
	Object   ObjectRef

	SemanticName string
	DisplayName  string
	Units        string

	Writable bool
	// MinValue/MaxValue bound accepted write values; nil means unbounded
	// on that side.
	MinValue *float64
	MaxValue *float64

	PollInterval   time.Duration
	QoS            byte
	PublishEnabled bool

	// Latest-value cache, loaded from the store and refreshed by the
	// latest sink. Nil until the point has been read at least once.
	LastValue    *float64
	LastPollTime *time.Time
}

// Key returns the point's unique key.
func (p *Point) Key() PointKey {
	return PointKey{DeviceID: p.DeviceID, Object: p.Object}
}

// FunctionSegment returns the fourth dot-delimited segment of the
// semantic name, which encodes the point's function, or "" when the
// name is too short.
func (p *Point) FunctionSegment() string {
	parts := strings.Split(p.SemanticName, ".")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// Settable reports whether the point's semantic name marks it as a
// settable setpoint.
func (p *Point) Settable() bool {
	return p.FunctionSegment() == SettableMarker
}

// Snapshot is an immutable view of the configured devices and points,
// loaded atomically from the store. A snapshot is never mutated after
// construction; refresh replaces the whole snapshot.
type Snapshot struct {
	Devices  map[uint32]*Device
	Points   map[PointKey]*Point
	LoadedAt time.Time
}

// Point resolves a point by key.
func (s *Snapshot) Point(key PointKey) (*Point, bool) {
	p, ok := s.Points[key]
	return p, ok
}

// Device resolves a device by id.
func (s *Snapshot) Device(id uint32) (*Device, bool) {
	d, ok := s.Devices[id]
	return d, ok
}

// DeviceCount returns the number of enabled devices in the snapshot.
func (s *Snapshot) DeviceCount() int {
	return len(s.Devices)
}

// PointCount returns the number of points in the snapshot.
func (s *Snapshot) PointCount() int {
	return len(s.Points)
}

// emptySnapshot is used before the first successful load.
func emptySnapshot() *Snapshot {
	return &Snapshot{
		Devices: map[uint32]*Device{},
		Points:  map[PointKey]*Point{},
	}
}
