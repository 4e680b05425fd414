// Package message defines the wire payloads and topic model of the
// gateway's message bus.
//
// Four payloads flow over the bus:
//
//   - TelemetryPayload: outbound point samples on per-point topics
//     built by TelemetryTopic, QoS from the point configuration
//   - WriteCommand: inbound write requests on TopicWriteCommand, QoS 1
//   - WriteResult: outbound command outcomes on TopicWriteResult, QoS 1
//   - Heartbeat: periodic liveness on TopicHeartbeat, QoS 1
//
// All payloads implement the Payload interface: Validate plus
// deterministic JSON marshaling.
//
// Reading is the in-process form of a sampled point value; it carries
// the point identity the sinks need and converts to a TelemetryPayload
// via Reading.Telemetry. Topic identity is derived deterministically:
// the equipment segment is the second dot-delimited segment of the
// point's semantic name, the object segment is "<type>-<instance>".
//
// Timestamps on the wire are ISO-8601 UTC with millisecond precision
// (pkg/timestamp); the telemetry payload additionally carries the
// site's configured timezone offset for consumers that render local
// time.
package message
