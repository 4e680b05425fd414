package bacnetip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReadProperty_WireFormat(t *testing.T) {
	frame := encodeReadProperty(7, objectAnalogInput, 42)

	expected := []byte{
		0x81, 0x0A, 0x00, 0x11, // BVLC: type, original-unicast, length 17
		0x01, 0x04, // NPDU: version, expecting reply
		0x00, 0x05, 0x07, 0x0C, // confirmed request, max APDU, invoke 7, ReadProperty
		0x0C, 0x00, 0x00, 0x00, 0x2A, // ctx 0: analogInput instance 42
		0x19, 0x55, // ctx 1: presentValue
	}
	assert.Equal(t, expected, frame)
}

func TestEncodeWriteProperty_AnalogReal(t *testing.T) {
	frame := encodeWriteProperty(3, objectAnalogOutput, 5, 72.5, 8, false)

	expected := []byte{
		0x81, 0x0A, 0x00, 0x1A,
		0x01, 0x04,
		0x00, 0x05, 0x03, 0x0F,
		0x0C, 0x00, 0x40, 0x00, 0x05, // ctx 0: analogOutput instance 5
		0x19, 0x55,
		0x3E, 0x44, 0x42, 0x91, 0x00, 0x00, 0x3F, // REAL 72.5 in tag 3
		0x49, 0x08, // ctx 4: priority 8
	}
	assert.Equal(t, expected, frame)
}

func TestEncodeWriteProperty_BinaryEnumerated(t *testing.T) {
	frame := encodeWriteProperty(1, objectBinaryOutput, 2, 1, 8, false)

	// value travels as a one-octet ENUMERATED between the open/close tags
	i := len(frame) - 6
	assert.Equal(t, []byte{0x3E, 0x91, 0x01, 0x3F}, frame[i:i+4])
}

func TestEncodeWriteProperty_MultiStateUnsigned(t *testing.T) {
	frame := encodeWriteProperty(1, objectMultiStateValue, 9, 3, 16, false)

	i := len(frame) - 6
	assert.Equal(t, []byte{0x3E, 0x21, 0x03, 0x3F}, frame[i:i+4])
	assert.Equal(t, byte(0x10), frame[len(frame)-1])
}

func TestEncodeWriteProperty_ReleaseWritesNull(t *testing.T) {
	frame := encodeWriteProperty(1, objectAnalogOutput, 5, 21.5, 8, true)

	i := len(frame) - 5
	assert.Equal(t, []byte{0x3E, 0x00, 0x3F}, frame[i:i+3])
}

// ackFrame builds a ReadProperty-ACK the way a device would, echoing
// the object and property identifiers before the value.
func ackFrame(invokeID byte, typeID uint16, instance uint32, value []byte) []byte {
	apdu := []byte{0x30, invokeID, serviceReadProperty}
	apdu = encodeObjectID(apdu, typeID, instance)
	apdu = encodePropertyID(apdu, propertyPresentValue)
	apdu = append(apdu, 0x3E)
	apdu = append(apdu, value...)
	apdu = append(apdu, 0x3F)
	return wrapBVLC(apdu)
}

func TestDecodeResponse_ComplexAckReal(t *testing.T) {
	frame := ackFrame(9, objectAnalogInput, 42, []byte{0x44, 0x42, 0x91, 0x00, 0x00})

	resp, err := decodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, byte(9), resp.invokeID)
	assert.True(t, resp.hasValue)
	assert.InDelta(t, 72.5, resp.value, 0.0001)
}

func TestDecodeResponse_ComplexAckEnumerated(t *testing.T) {
	frame := ackFrame(2, objectBinaryInput, 1, []byte{0x91, 0x01})

	resp, err := decodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.value)
}

func TestDecodeResponse_ComplexAckUnsigned(t *testing.T) {
	frame := ackFrame(2, objectMultiStateInput, 1, []byte{0x22, 0x01, 0x2C})

	resp, err := decodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, 300.0, resp.value)
}

func TestDecodeResponse_ComplexAckSigned(t *testing.T) {
	// 0x32 = signed, length 2; 0xFF 0x38 = -200
	frame := ackFrame(3, objectAnalogValue, 7, []byte{0x32, 0xFF, 0x38})

	resp, err := decodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, -200.0, resp.value)
}

func TestDecodeResponse_ComplexAckNullIsError(t *testing.T) {
	frame := ackFrame(2, objectAnalogValue, 1, []byte{0x00})

	_, err := decodeResponse(frame)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NULL")
}

func TestDecodeResponse_SimpleAck(t *testing.T) {
	frame := wrapBVLC([]byte{0x20, 0x05, serviceWriteProperty})

	resp, err := decodeResponse(frame)
	require.NoError(t, err)
	assert.Equal(t, byte(5), resp.invokeID)
	assert.False(t, resp.hasValue)
}

func TestDecodeResponse_ErrorPDU(t *testing.T) {
	// error-class property (2), error-code write-access-denied (40)
	frame := wrapBVLC([]byte{0x50, 0x05, serviceWriteProperty, 0x91, 0x02, 0x91, 0x28})

	_, err := decodeResponse(frame)
	require.Error(t, err)

	var de *errDeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint32(2), de.class)
	assert.Equal(t, uint32(40), de.code)
}

func TestDecodeResponse_RejectPDU(t *testing.T) {
	frame := wrapBVLC([]byte{0x60, 0x05, 0x09})

	_, err := decodeResponse(frame)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Reject")
}

func TestDecodeResponse_MalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"short", []byte{0x81, 0x0A}},
		{"wrong bvlc type", []byte{0x99, 0x0A, 0x00, 0x07, 0x01, 0x00, 0x20}},
		{"length beyond frame", []byte{0x81, 0x0A, 0xFF, 0xFF, 0x01, 0x00, 0x20}},
		{"bad npdu version", []byte{0x81, 0x0A, 0x00, 0x07, 0x02, 0x00, 0x20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeResponse(tt.frame)
			assert.Error(t, err)
		})
	}
}

func TestObjectTypeID(t *testing.T) {
	id, err := objectTypeID("analogOutput")
	require.NoError(t, err)
	assert.Equal(t, objectAnalogOutput, id)

	_, err = objectTypeID("calendar")
	assert.Error(t, err)
}
