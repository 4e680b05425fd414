// Package poller implements the poll scheduler: a fixed tick loop that
// selects due points from the configuration snapshot and issues
// field-bus reads through a bounded worker pool. Successful reads
// become readings for the publisher; failed reads are logged and retry
// naturally once the point's interval elapses again.
package poller
