// Package busclient provides the MQTT transport for the gateway.
//
// The client connects with an indefinite fixed-backoff loop so a broker
// outage at process start never kills the process, re-establishes
// subscriptions after every reconnect, and decouples subscriber
// handlers from the transport callback through bounded per-subscription
// queues.
//
// Connection state is deliberately not taken from the MQTT library's
// callbacks. A broker session can be nominally up while no traffic
// moves, and nominally down while QoS 1 traffic still drains; what the
// gateway actually cares about is whether data flows. State() therefore
// reports Connected only while a successful publish or inbound delivery
// happened within a trailing window, Connecting after startup or
// Reconfigure until data moves, and Disconnected once the window
// expires.
package busclient
