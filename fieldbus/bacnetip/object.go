package bacnetip

import "fmt"

// BACnet object type identifiers as assigned by the protocol. Only the
// types the gateway polls and writes are listed; anything else in the
// point store fails fast at encode time.
const (
	objectAnalogInput      uint16 = 0
	objectAnalogOutput     uint16 = 1
	objectAnalogValue      uint16 = 2
	objectBinaryInput      uint16 = 3
	objectBinaryOutput     uint16 = 4
	objectBinaryValue      uint16 = 5
	objectMultiStateInput  uint16 = 13
	objectMultiStateOutput uint16 = 14
	objectMultiStateValue  uint16 = 19
)

var objectTypeIDs = map[string]uint16{
	"analogInput":      objectAnalogInput,
	"analogOutput":     objectAnalogOutput,
	"analogValue":      objectAnalogValue,
	"binaryInput":      objectBinaryInput,
	"binaryOutput":     objectBinaryOutput,
	"binaryValue":      objectBinaryValue,
	"multiStateInput":  objectMultiStateInput,
	"multiStateOutput": objectMultiStateOutput,
	"multiStateValue":  objectMultiStateValue,
}

// objectTypeID resolves an object type name from the point store to its
// protocol identifier.
func objectTypeID(name string) (uint16, error) {
	id, ok := objectTypeIDs[name]
	if !ok {
		return 0, fmt.Errorf("unknown object type %q", name)
	}
	return id, nil
}

// isAnalog reports whether values for the object type travel as REAL
// application tags. Binary types use ENUMERATED and multi-state types
// use UNSIGNED.
func isAnalog(typeID uint16) bool {
	switch typeID {
	case objectAnalogInput, objectAnalogOutput, objectAnalogValue:
		return true
	}
	return false
}

func isBinary(typeID uint16) bool {
	switch typeID {
	case objectBinaryInput, objectBinaryOutput, objectBinaryValue:
		return true
	}
	return false
}
