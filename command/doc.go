// Package command implements the inbound write path: commands arrive
// from the bus on a fixed topic, pass an accumulating validator, and
// accepted ones become exactly one field-bus write each. Every received
// command produces exactly one result message, rejected or not.
//
// The safety-critical check is the function gate: a point's semantic
// name must carry the settable marker in its function segment before
// any other attribute is even considered. Sensor points can never be
// written, regardless of how the writable flag is set.
package command
