package command

import (
	"context"
	"time"

	"github.com/c360/fieldbridge/fieldbus"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/pointstore"
)

const defaultWriteTimeout = 5 * time.Second

// Executor performs exactly one field-bus write per accepted command.
// It never retries: a failed write is reported once and resubmission is
// the originator's responsibility.
type Executor struct {
	client       fieldbus.Client
	gate         *fieldbus.Gate
	writeTimeout time.Duration
}

// NewExecutor creates an executor over the field-bus client and gate.
func NewExecutor(client fieldbus.Client, gate *fieldbus.Gate, writeTimeout time.Duration) *Executor {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Executor{client: client, gate: gate, writeTimeout: writeTimeout}
}

// Execute writes the command's value (or a release) at its priority,
// serialized with all other traffic to the same device.
func (e *Executor) Execute(ctx context.Context, cmd *message.WriteCommand, dev *pointstore.Device) error {
	writeCtx, cancel := context.WithTimeout(ctx, e.writeTimeout)
	defer cancel()

	obj := pointstore.ObjectRef{Type: cmd.ObjectType, Instance: cmd.ObjectInstance}
	return e.gate.Do(writeCtx, dev.ID, func() error {
		return e.client.WritePresentValue(writeCtx, dev, obj, cmd.Value, cmd.Priority, cmd.Release)
	})
}
