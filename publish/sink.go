package publish

import (
	"context"

	"github.com/c360/fieldbridge/message"
)

// Sink delivers readings to one destination. Deliver returns an error
// only for delivery failures the publisher should count and log; a sink
// that chooses to skip a reading (disabled bus publish, for example)
// returns nil.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, reading *message.Reading) error
}
