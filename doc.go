// Package fieldbridge implements an edge gateway worker that bridges a
// BACnet field bus to an MQTT message bus.
//
// The worker has two independent data paths that share infrastructure but
// never block each other:
//
// Outbound telemetry:
//
//	┌──────────┐    ┌───────────┐    ┌───────────────────┐
//	│  Poller  │───►│ Field Bus │───►│ Multi-Sink        │
//	│ (ticker) │    │  Client   │    │ Publisher         │
//	└──────────┘    └───────────┘    └─────┬──────┬──────┘
//	                                       │      │
//	                        latest cache ◄─┘      └─► hypertable,
//	                        (sqlite)                  MQTT telemetry
//
// Inbound commands:
//
//	┌───────────┐    ┌───────────┐    ┌──────────┐    ┌───────────┐
//	│ Bus       │───►│ Command   │───►│ Field Bus│───►│ Result    │
//	│ Transport │    │ Validator │    │  Client  │    │ Reporter  │
//	└───────────┘    └───────────┘    └──────────┘    └───────────┘
//
// A write command passes a multi-stage validation gate (point existence,
// semantic function marker, writable flag, priority range, value range)
// before any physical equipment is touched; every failure is accumulated
// and reported back to the originator as structured data on the result
// topic.
//
// # Packages
//
// Infrastructure:
//   - busclient: MQTT connection management with data-flow derived state
//   - pointstore: read-only point/device configuration snapshots
//   - fieldbus: field protocol client interface, per-device serialization
//   - fieldbus/bacnetip: BACnet/IP ReadProperty/WriteProperty over UDP
//   - metric: Prometheus metrics registry
//   - errors: classified error handling
//   - config: YAML + environment configuration
//
// Data paths:
//   - poller: per-point poll scheduling
//   - publish: independent fan-out to latest-value, time-series and bus sinks
//   - command: write command validation, execution and result reporting
//   - heartbeat: periodic gateway status publication
//
// Utilities:
//   - pkg/retry: exponential backoff
//   - pkg/worker: bounded generic worker pools
//   - pkg/tlsutil: client TLS configuration
//   - pkg/timestamp: UTC timestamp handling
package fieldbridge
