// Package service assembles the gateway from configuration: the point
// store and its snapshot accessor, the bus transport, the field client,
// the publish sinks, and the poller, command and heartbeat components.
// The Gateway owns the combined lifecycle; components start in
// dependency order and stop in reverse.
package service
