// Package bacnetip implements the fieldbus.Client interface over
// BACnet/IP (Annex J) UDP unicast.
//
// The implementation covers exactly what the gateway needs: confirmed
// ReadProperty and WriteProperty requests against the presentValue
// property of analog, binary and multi-state objects. Values are
// converted to and from float64 at the protocol boundary so the rest of
// the gateway never handles application tags.
//
// Each request uses an ephemeral UDP socket with a deadline derived
// from the caller's context. The gateway serializes requests per device
// through fieldbus.Gate, so the client itself carries no per-device
// state beyond a rolling invoke ID.
package bacnetip
