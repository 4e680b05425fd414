// Package pointstore provides the sqlite-backed configuration store and
// the snapshot accessor serving it to the rest of the gateway.
//
// The store holds two tables: devices (field-bus endpoints) and points
// (the objects polled on them, with semantic names, write bounds, poll
// intervals and bus QoS). The same point rows carry the latest-value
// cache columns updated by the publish path. The schema is bootstrapped
// on open so the gateway starts against an empty database; populating
// it is an external concern.
//
// Configuration is read as an immutable Snapshot loaded in one joined
// query and swapped atomically by the Accessor on a fixed refresh
// interval. Readers (the poll scheduler resolving due points, the
// command validator resolving write targets) always see a consistent
// view and never block on a refresh; a failed refresh keeps the last
// known-good snapshot, and removed points simply vanish on the next
// swap.
package pointstore
