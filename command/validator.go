package command

import (
	"github.com/c360/fieldbridge/errors"
	"github.com/c360/fieldbridge/message"
	"github.com/c360/fieldbridge/pointstore"
)

// Validator checks write commands against the configuration snapshot.
// Checks accumulate so the caller receives the complete diagnostic set
// in one round trip; only a failed existence check stops early, because
// the remaining checks are meaningless without a resolved point.
type Validator struct {
	accessor SnapshotProvider
}

// NewValidator creates a validator over the given snapshot provider.
func NewValidator(accessor SnapshotProvider) *Validator {
	return &Validator{accessor: accessor}
}

// Validate resolves the command's target and runs the acceptance
// checks. On acceptance it returns the resolved point and device with
// no errors; on rejection the ordered error list describes every
// failed check.
func (v *Validator) Validate(cmd *message.WriteCommand) (*pointstore.Point, *pointstore.Device, errors.ValidationErrors) {
	var verrs errors.ValidationErrors

	snap := v.accessor.Snapshot()
	key := pointstore.PointKey{
		DeviceID: cmd.DeviceID,
		Object:   pointstore.ObjectRef{Type: cmd.ObjectType, Instance: cmd.ObjectInstance},
	}

	pt, ok := snap.Point(key)
	if !ok {
		verrs.Add("object", "unknown point %s on device %d", cmd.ObjectID(), cmd.DeviceID)
		return nil, nil, verrs
	}
	dev, ok := snap.Device(cmd.DeviceID)
	if !ok {
		verrs.Add("object", "device %d not configured", cmd.DeviceID)
		return nil, nil, verrs
	}

	// The semantic-name hint guards against a command addressed at the
	// wrong device/object pair: when supplied it must match the resolved
	// point's configured name.
	if cmd.SemanticName != "" && cmd.SemanticName != pt.SemanticName {
		verrs.Add("semanticName",
			"semantic name %q does not match configured name %q for %s",
			cmd.SemanticName, pt.SemanticName, cmd.ObjectID())
	}

	// The function gate is the primary safety invariant: a point whose
	// semantic name does not mark it settable cannot be written, no
	// matter what the other flags say.
	if !pt.Settable() {
		verrs.Add("semanticName",
			"point %s is not a settable point (function segment %q)",
			pt.SemanticName, pt.FunctionSegment())
	}

	if !pt.Writable {
		verrs.Add("writable", "point %s is not writable", pt.SemanticName)
	}

	if cmd.Priority < message.MinPriority || cmd.Priority > message.MaxPriority {
		verrs.Add("priority", "priority %d outside range %d-%d",
			cmd.Priority, message.MinPriority, message.MaxPriority)
	}

	// A release relinquishes the slot; the value is ignored, so range
	// checks do not apply.
	if !cmd.Release {
		if pt.MinValue != nil && cmd.Value < *pt.MinValue {
			verrs.Add("value", "value %g below minimum %g", cmd.Value, *pt.MinValue)
		}
		if pt.MaxValue != nil && cmd.Value > *pt.MaxValue {
			verrs.Add("value", "value %g above maximum %g", cmd.Value, *pt.MaxValue)
		}
	}

	if len(verrs) > 0 {
		return nil, nil, verrs
	}
	return pt, dev, nil
}
