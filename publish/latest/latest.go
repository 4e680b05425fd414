// Package latest persists the most recent value of every point back to
// the configuration store, giving external tooling a current-value view
// without touching the field bus.
package latest

import (
	"context"
	stderrors "errors"

	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/pointstore"
	"github.com/c360/fieldbridge/publish"
)

// Sink writes last_value and last_poll_time for the reading's point row.
type Sink struct {
	store *pointstore.Store
}

// New creates the latest-value sink over the configuration store.
func New(store *pointstore.Store) *Sink {
	return &Sink{store: store}
}

var _ publish.Sink = (*Sink)(nil)

// Name identifies the sink in logs and metrics.
func (s *Sink) Name() string { return "latest" }

// Deliver updates the point row. A reading for a point that left the
// configuration between poll and delivery is not an outage; it is
// dropped silently.
func (s *Sink) Deliver(ctx context.Context, r *message.Reading) error {
	key := pointstore.PointKey{
		DeviceID: r.DeviceID,
		Object:   pointstore.ObjectRef{Type: r.ObjectType, Instance: r.ObjectInstance},
	}

	err := s.store.UpdateLatest(ctx, key, r.Value, r.Timestamp)
	if stderrors.Is(err, errors.ErrPointNotFound) {
		return nil
	}
	return errors.NewSinkError(s.Name(), err)
}
