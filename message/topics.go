package message

import "fmt"

// Fixed bus topics for the command and liveness paths.
const (
	// TopicWriteCommand carries inbound WriteCommand payloads, QoS 1.
	TopicWriteCommand = "bacnet/write/command"
	// TopicWriteResult carries outbound WriteResult payloads, QoS 1.
	TopicWriteResult = "bacnet/write/result"
	// TopicHeartbeat carries the periodic Heartbeat payload, QoS 1.
	TopicHeartbeat = "bacnet/gateway/heartbeat"
)

// QoS levels for the fixed topics. Telemetry QoS comes from the point
// configuration instead.
const (
	QoSTelemetryDefault byte = 0
	QoSCommand          byte = 1
	QoSResult           byte = 1
	QoSHeartbeat        byte = 1
)

// TelemetryTopic builds the telemetry topic for a reading:
// {site}/{equipment}/{object}/presentValue, where equipment is derived
// from the reading's semantic name and object is "<type>-<instance>".
func TelemetryTopic(site string, r *Reading) string {
	return fmt.Sprintf("%s/%s/%s/presentValue", site, r.Equipment(), r.ObjectID())
}
