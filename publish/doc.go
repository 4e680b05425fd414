// Package publish fans readings out to the configured sinks: the
// latest-value cache, the time-series store and the message bus. Sinks
// fail independently. An unreachable destination costs that destination
// its readings for the duration of the outage and nothing more; there
// is no buffering or replay.
package publish
