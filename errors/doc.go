// Package errors provides standardized error handling for fieldbridge components.
//
// # Overview
//
// Two layers of error semantics live here. The first is the generic
// three-class system (Transient, Invalid, Fatal) used for retry and
// shutdown decisions throughout the worker. The second is the gateway's
// domain taxonomy:
//
//   - ValidationError: a (field, message) pair produced by the command
//     validator. Always returned to the caller as structured data, never
//     as an opaque failure, and never the cause of a field-bus side effect.
//   - ProtocolError: a field-bus read or write failed. Logged and, for
//     writes, reported per-command; never retried automatically.
//   - SinkError: a storage or transport sink is unreachable. Logged once
//     per outage, other sinks unaffected, the same sink retried on the
//     next reading.
//   - TransportError: the message-bus connection is down. Drives the
//     reconnect backoff; never terminates the process.
//
// # Quick Start
//
// Wrap errors with component context:
//
//	if err := store.LoadSnapshot(ctx); err != nil {
//	    return errors.WrapTransient(err, "Accessor", "refresh", "load snapshot")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsTransient(err) {
//	    // back off and retry
//	}
//
// Accumulate validation failures:
//
//	var verrs errors.ValidationErrors
//	verrs.Add("priority", "priority 17 outside range 1-16")
//	verrs.Add("value", "value 120 above configured maximum 100")
//	if len(verrs) > 0 {
//	    return verrs
//	}
//
// All types support errors.Is/As and error wrapping chains.
package errors
