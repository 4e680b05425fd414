// Package fieldbus defines the protocol-neutral surface between the
// gateway and the field bus: the Client interface for present-value
// reads and writes, and the Gate serializing requests per device.
//
// The concrete BACnet/IP implementation lives in fieldbus/bacnetip.
package fieldbus
