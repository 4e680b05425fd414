// Package bussink publishes telemetry readings on the message bus.
package bussink

import (
	"context"
	"encoding/json"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/publish"
)

// Transport is the slice of the bus client the sink needs.
type Transport interface {
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
}

// Sink publishes each reading on its telemetry topic with the QoS
// configured on the point.
type Sink struct {
	bus            Transport
	site           string
	utcOffsetHours int
}

// New creates the bus sink. site becomes the first topic segment;
// utcOffsetHours is echoed in every payload alongside the UTC timestamp.
func New(bus Transport, site string, utcOffsetHours int) *Sink {
	return &Sink{bus: bus, site: site, utcOffsetHours: utcOffsetHours}
}

var _ publish.Sink = (*Sink)(nil)

// Name identifies the sink in logs and metrics.
func (s *Sink) Name() string { return "bus" }

// Deliver publishes the reading. Points with bus publishing disabled
// are skipped without error; they still reach the storage sinks.
func (s *Sink) Deliver(ctx context.Context, r *message.Reading) error {
	if !r.BusPublish {
		return nil
	}

	payload, err := json.Marshal(r.Telemetry(s.utcOffsetHours))
	if err != nil {
		return errors.NewSinkError(s.Name(), err)
	}

	topic := message.TelemetryTopic(s.site, r)
	if err := s.bus.Publish(ctx, topic, r.QoS, payload); err != nil {
		return errors.NewSinkError(s.Name(), err)
	}
	return nil
}
