package fieldbus

import (
	"context"

	"github.com/c360/fieldbridge/pointstore"
)

// Client reads and writes present values on field-bus devices. The
// gateway talks to exactly one protocol implementation at a time
// (bacnetip); the interface keeps the poller and executor independent
// of the wire protocol.
type Client interface {
	// ReadPresentValue reads the present value of an object.
	ReadPresentValue(ctx context.Context, dev *pointstore.Device, obj pointstore.ObjectRef) (float64, error)

	// WritePresentValue writes value to an object at the given priority
	// (1 highest .. 16 lowest). With release=true the priority slot is
	// relinquished instead and value is ignored.
	WritePresentValue(ctx context.Context, dev *pointstore.Device, obj pointstore.ObjectRef, value float64, priority int, release bool) error

	// Close releases client resources.
	Close() error
}
