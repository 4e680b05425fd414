// Package heartbeat publishes a periodic liveness payload on the bus so
// operators can distinguish a healthy-but-quiet gateway from a dead one.
package heartbeat
